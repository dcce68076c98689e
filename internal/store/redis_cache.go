package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/linkyhq/linky/internal/link"
	"github.com/redis/go-redis/v9"
)

// RedisCacheRepository decorates a link.Repository with Redis caching for
// the slug lookup on the redirect hot path.
//
// Only FindBySlug is served from cache; ownership-scoped reads and listings
// always hit the base store. A cached entry may carry a stale visit counter,
// which the redirect path never reads. Cache failures degrade to the base
// store, never to a request failure.
type RedisCacheRepository struct {
	base   link.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCacheRepository creates a Redis-cached repository decorator.
func NewRedisCacheRepository(base link.Repository, client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		base:   base,
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCacheRepository) Create(ctx context.Context, l *link.Link) error {
	if err := r.base.Create(ctx, l); err != nil {
		return err
	}

	r.cache(ctx, l)

	return nil
}

func (r *RedisCacheRepository) FindBySlug(ctx context.Context, slug string) (*link.Link, error) {
	if l, ok := r.fromCache(ctx, slug); ok {
		return l, nil
	}

	l, err := r.base.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, l)

	return l, nil
}

func (r *RedisCacheRepository) FindByOriginal(ctx context.Context, originalURL string, ownerID int64) (*link.Link, error) {
	return r.base.FindByOriginal(ctx, originalURL, ownerID)
}

func (r *RedisCacheRepository) FindOwned(ctx context.Context, id, ownerID int64) (*link.Link, error) {
	return r.base.FindOwned(ctx, id, ownerID)
}

func (r *RedisCacheRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.base.SlugExists(ctx, slug)
}

func (r *RedisCacheRepository) UpdateSlug(ctx context.Context, current *link.Link, newSlug string) (*link.Link, error) {
	updated, err := r.base.UpdateSlug(ctx, current, newSlug)
	if err != nil {
		return nil, err
	}

	// The renamed-away slug must stop resolving immediately, not at TTL.
	_ = r.client.Del(ctx, r.key(current.Slug)).Err()
	r.cache(ctx, updated)

	return updated, nil
}

func (r *RedisCacheRepository) RecordVisit(ctx context.Context, v *link.Visit) error {
	return r.base.RecordVisit(ctx, v)
}

func (r *RedisCacheRepository) ListByOwner(ctx context.Context, ownerID int64, sort link.Sort) ([]*link.Link, error) {
	return r.base.ListByOwner(ctx, ownerID, sort)
}

func (r *RedisCacheRepository) key(slug string) string {
	return "link:" + slug
}

func (r *RedisCacheRepository) fromCache(ctx context.Context, slug string) (*link.Link, bool) {
	payload, err := r.client.Get(ctx, r.key(slug)).Bytes()
	if err != nil {
		return nil, false
	}

	var l link.Link
	if err := json.Unmarshal(payload, &l); err != nil {
		return nil, false
	}

	return &l, true
}

func (r *RedisCacheRepository) cache(ctx context.Context, l *link.Link) {
	payload, err := json.Marshal(l)
	if err != nil {
		return
	}

	_ = r.client.Set(ctx, r.key(l.Slug), payload, r.ttl).Err()
}

// Compile-time check.
var _ link.Repository = (*RedisCacheRepository)(nil)
