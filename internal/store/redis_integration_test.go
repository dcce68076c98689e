//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linkyhq/linky/internal/link"
	"github.com/linkyhq/linky/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisCacheRepositoryIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("serves repeated slug lookups from cache", func(t *testing.T) {
		client := newRedisClient(t)
		base := store.NewMemoryRepository()
		repo := store.NewRedisCacheRepository(base, client, time.Minute)

		l := &link.Link{OriginalURL: "https://example.com", Slug: "rcache1", IsActive: true}
		require.NoError(t, repo.Create(ctx, l))

		defer client.Del(ctx, "link:rcache1")

		got, err := repo.FindBySlug(ctx, "rcache1")
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)

		// The entry is in Redis after the write-through.
		assert.Positive(t, client.Exists(ctx, "link:rcache1").Val())
	})

	t.Run("rename invalidates the old slug immediately", func(t *testing.T) {
		client := newRedisClient(t)
		base := store.NewMemoryRepository()
		repo := store.NewRedisCacheRepository(base, client, time.Minute)

		l := &link.Link{OriginalURL: "https://example.com", Slug: "rcold", IsActive: true}
		require.NoError(t, repo.Create(ctx, l))

		defer client.Del(ctx, "link:rcold", "link:rcnew")

		_, err := repo.UpdateSlug(ctx, l, "rcnew")
		require.NoError(t, err)

		assert.Zero(t, client.Exists(ctx, "link:rcold").Val())

		_, err = repo.FindBySlug(ctx, "rcold")
		assert.ErrorIs(t, err, link.ErrNotFound)

		got, err := repo.FindBySlug(ctx, "rcnew")
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
	})

	t.Run("a cache miss falls through to the base store", func(t *testing.T) {
		client := newRedisClient(t)
		base := store.NewMemoryRepository()
		repo := store.NewRedisCacheRepository(base, client, time.Minute)

		l := &link.Link{OriginalURL: "https://example.com", Slug: "rcmiss", IsActive: true}
		require.NoError(t, base.Create(ctx, l))

		defer client.Del(ctx, "link:rcmiss")

		got, err := repo.FindBySlug(ctx, "rcmiss")
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("counts and expires", func(t *testing.T) {
		client := newRedisClient(t)
		s := store.NewRateLimitRedisStore(client)

		defer client.Del(ctx, "ratelimit:itclient")

		for i := int64(1); i <= 3; i++ {
			count, err := s.Record(ctx, "itclient", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}

		ttl := client.TTL(ctx, "ratelimit:itclient").Val()
		assert.Positive(t, ttl)
		assert.LessOrEqual(t, ttl, time.Minute)
	})
}
