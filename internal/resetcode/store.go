// Package resetcode keeps short-lived password reset codes in Redis.
package resetcode

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL = time.Hour
	// MaxAttempts wrong guesses burn the code.
	MaxAttempts = 5

	codeKeyPrefix     = "coach-reset-code||"
	attemptsKeyPrefix = "coach-reset-attempts||"
)

type Store struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject the code generator (tests)
	CodeFunc func() (string, error)
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redisClient: redisClient,
		ttl:         ttl,
		CodeFunc:    SixDigitCode,
	}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new code for email, replacing any earlier one.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.CodeFunc()
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	key := normalize(email)
	if err := s.redisClient.Set(ctx, codeKeyPrefix+key, code, s.ttl).Err(); err != nil {
		return "", err
	}
	if err := s.redisClient.Del(ctx, attemptsKeyPrefix+key).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Consume reports whether code is the live code for email. A matching code is deleted
// so it works once.
func (s *Store) Consume(ctx context.Context, email, code string) (bool, error) {
	key := normalize(email)
	stored, err := s.redisClient.Get(ctx, codeKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		if err := s.redisClient.Del(ctx, codeKeyPrefix+key, attemptsKeyPrefix+key).Err(); err != nil {
			return false, err
		}
		return true, nil
	}

	attempts, err := s.redisClient.Incr(ctx, attemptsKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	if attempts == 1 {
		if err := s.redisClient.Expire(ctx, attemptsKeyPrefix+key, s.ttl).Err(); err != nil {
			return false, err
		}
	}
	if attempts >= MaxAttempts {
		if err := s.redisClient.Del(ctx, codeKeyPrefix+key, attemptsKeyPrefix+key).Err(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// SixDigitCode returns a uniformly random code in [100000, 999999].
func SixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
