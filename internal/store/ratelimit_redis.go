package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRedisStore is a Redis-backed implementation of ratelimit.Store,
// shared across server instances. It counts with INCR and window-long key
// expiry, a fixed-window approximation of the in-memory sliding window.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, s.prefix+key)
	pipe.Expire(ctx, s.prefix+key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}
