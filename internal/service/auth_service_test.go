package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/repository/memory"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResetCodes hands out a fixed code and forgets it on the first correct use.
type fakeResetCodes struct {
	mu    sync.Mutex
	codes map[string]string
}

func (f *fakeResetCodes) Issue(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[email] = "123456"
	return "123456", nil
}

func (f *fakeResetCodes) Consume(_ context.Context, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codes[email] == "" || f.codes[email] != code {
		return false, nil
	}
	delete(f.codes, email)
	return true, nil
}

const testSecret = "test-secret"

func newAuthFixture() (AuthService, *memory.UserRepository, *notify.Recorder) {
	users := memory.NewUserRepository()
	emails := notify.NewRecorder()
	return NewAuthService(users, &fakeResetCodes{}, emails, testSecret, time.Hour), users, emails
}

func TestAuthService_RegisterLoginVerify(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Dana", " Dana@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, domain.Roles{domain.RoleClient}, user.Roles)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = svc.Register(ctx, "Dana again", "dana@example.com", "password123")
	assertKind(t, domain.KindConflict, err)
	_, err = svc.Register(ctx, "Short", "short@example.com", "short")
	assertKind(t, domain.KindValidation, err)
	_, err = svc.Register(ctx, "Bad", "not-an-email", "password123")
	assertKind(t, domain.KindValidation, err)
	_, err = svc.Register(ctx, "Long", "long@example.com", strings.Repeat("a", MaxPasswordLen+8))
	assertKind(t, domain.KindValidation, err)

	token, loggedIn, err := svc.Login(ctx, "DANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	p, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.ID)
	assert.Equal(t, domain.Roles{domain.RoleClient}, p.Roles)

	_, _, err = svc.Login(ctx, "dana@example.com", "wrong-password")
	assertKind(t, domain.KindUnauthorized, err)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assertKind(t, domain.KindUnauthorized, err)
}

func TestAuthService_VerifyTokenRejects(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.VerifyToken("garbage")
	assertKind(t, domain.KindUnauthorized, err)

	other := NewAuthService(memory.NewUserRepository(), nil, nil, "another-secret", time.Hour)
	user, err := other.Register(context.Background(), "Eve", "eve@example.com", "password123")
	require.NoError(t, err)
	token, _, err := other.Login(context.Background(), "eve@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.VerifyToken(token)
	assertKind(t, domain.KindUnauthorized, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: user.ID.Hex(),
		Roles:  []string{"client"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.VerifyToken(signed)
	assertKind(t, domain.KindUnauthorized, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: user.ID.Hex(),
		Roles:  []string{"superuser"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err = unknownRole.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.VerifyToken(signed)
	assertKind(t, domain.KindUnauthorized, err)
}

func TestAuthService_PasswordReset(t *testing.T) {
	svc, _, emails := newAuthFixture()
	ctx := context.Background()
	_, err := svc.Register(ctx, "Dana", "dana@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, emails.Emails())

	require.NoError(t, svc.RequestPasswordReset(ctx, "Dana@example.com"))
	sent := emails.Emails()
	require.Len(t, sent, 1)
	assert.Equal(t, "dana@example.com", sent[0].To)
	assert.Equal(t, "123456", sent[0].Code)

	// a weak password does not burn the code
	err = svc.ResetPassword(ctx, "dana@example.com", "123456", "short")
	assertKind(t, domain.KindValidation, err)
	err = svc.ResetPassword(ctx, "dana@example.com", "000000", "new-password-1")
	assertKind(t, domain.KindValidation, err)

	require.NoError(t, svc.ResetPassword(ctx, "dana@example.com", "123456", "new-password-1"))
	err = svc.ResetPassword(ctx, "dana@example.com", "123456", "new-password-2")
	assertKind(t, domain.KindValidation, err)

	_, _, err = svc.Login(ctx, "dana@example.com", "password123")
	assertKind(t, domain.KindUnauthorized, err)
	_, _, err = svc.Login(ctx, "dana@example.com", "new-password-1")
	require.NoError(t, err)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	user, err := svc.Register(ctx, "Dana", "dana@example.com", "password123")
	require.NoError(t, err)
	p := as(user)

	assertKind(t, domain.KindValidation, svc.ChangePassword(ctx, p, "wrong-password", "new-password-1"))
	assertKind(t, domain.KindUnauthorized, svc.ChangePassword(ctx, domain.Principal{}, "password123", "new-password-1"))
	require.NoError(t, svc.ChangePassword(ctx, p, "password123", "new-password-1"))

	_, _, err = svc.Login(ctx, "dana@example.com", "new-password-1")
	require.NoError(t, err)
}
