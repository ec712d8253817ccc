package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the minimal Redis interface needed by the revocation store
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevocationStore keeps revoked credential IDs in Redis with a TTL matching the
// credential's remaining lifetime, so the set never grows past the live sessions.
type RedisRevocationStore struct {
	client RedisClient
	now    func() time.Time
}

// NewRedisRevocationStore creates a new Redis-backed revocation store
func NewRedisRevocationStore(client RedisClient) *RedisRevocationStore {
	return &RedisRevocationStore{
		client: client,
		now:    time.Now,
	}
}

func (s *RedisRevocationStore) key(credentialID string) string {
	return "session:revoked:" + credentialID
}

// Revoke marks the credential as revoked until the given time
func (s *RedisRevocationStore) Revoke(ctx context.Context, credentialID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		// Already expired, nothing to deny
		return nil
	}
	if err := s.client.Set(ctx, s.key(credentialID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked session: %w", err)
	}
	return nil
}

// IsRevoked reports whether the credential was revoked
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, credentialID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(credentialID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked session: %w", err)
	}
	return n > 0, nil
}
