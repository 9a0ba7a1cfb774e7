package resetcode

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	testEmail   = "ann@example.com"
	testCode    = "123456"
	codeKey     = codeKeyPrefix + testEmail
	attemptsKey = attemptsKeyPrefix + testEmail
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func newTestStore(t *testing.T) (*Store, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { db.Close() })
	s := NewStore(db, time.Hour)
	s.CodeFunc = func() (string, error) { return testCode, nil }
	return s, mock
}

func TestStore_Issue(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectSet(codeKey, testCode, time.Hour).SetVal("OK")
	mock.ExpectDel(attemptsKey).SetVal(0)

	code, err := s.Issue(context.Background(), " Ann@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, testCode, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Consume_Match(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectGet(codeKey).SetVal(testCode)
	mock.ExpectDel(codeKey, attemptsKey).SetVal(1)

	ok, err := s.Consume(context.Background(), testEmail, testCode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Consume_Expired(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectGet(codeKey).RedisNil()

	ok, err := s.Consume(context.Background(), testEmail, testCode)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Consume_WrongCode(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectGet(codeKey).SetVal(testCode)
	mock.ExpectIncr(attemptsKey).SetVal(1)
	mock.ExpectExpire(attemptsKey, time.Hour).SetVal(true)

	ok, err := s.Consume(context.Background(), testEmail, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Consume_TooManyAttempts(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectGet(codeKey).SetVal(testCode)
	mock.ExpectIncr(attemptsKey).SetVal(MaxAttempts)
	mock.ExpectDel(codeKey, attemptsKey).SetVal(2)

	ok, err := s.Consume(context.Background(), testEmail, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSixDigitCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := SixDigitCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}
