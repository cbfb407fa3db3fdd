package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "blacklist:"

// RevocationStore remembers token IDs that were logged out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationStore keeps revoked token IDs in Redis until they would have expired anyway.
// A nil client turns every call into a no-op.
type RedisRevocationStore struct {
	rdb *redis.Client
}

// NewRedisRevocationStore wraps rdb, which may be nil.
func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

// Revoke stores jti until expiresAt.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}
