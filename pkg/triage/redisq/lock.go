package redisq

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds the reprocessing-suppression window for a ticket id.
const DefaultLockTTL = 30 * time.Second

// LockStore provides cross-process idempotency locks via Redis's atomic
// SET NX EX. A lock record's existence means "being processed or recently
// processed"; locks are never explicitly deleted, they expire, so duplicate
// suppression is bounded rather than permanent.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLockStore creates a lock store with the given TTL.
func NewLockStore(client *redis.Client, ttl time.Duration) *LockStore {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &LockStore{client: client, ttl: ttl}
}

// Acquire attempts to create the lock record. It returns true when the key
// was created (first sight of this id within the TTL window) and false when
// the key already exists.
func (s *LockStore) Acquire(ctx context.Context, key string) (bool, error) {
	acquired, err := s.client.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, classifyErr(err, "acquire lock")
	}
	return acquired, nil
}

// TTL returns the configured lock TTL.
func (s *LockStore) TTL() time.Duration {
	return s.ttl
}
