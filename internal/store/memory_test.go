package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linkyhq/linky/internal/link"
	"github.com/linkyhq/linky/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owned(url, slug string, owner int64) *link.Link {
	return &link.Link{
		OriginalURL: url,
		Slug:        slug,
		OwnerID:     &owner,
		IsActive:    true,
	}
}

func TestMemoryRepository_Create(t *testing.T) {
	t.Run("assigns identity and timestamps", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		l := &link.Link{OriginalURL: "https://example.com", Slug: "abc123", IsActive: true}
		err := repo.Create(context.Background(), l)

		require.NoError(t, err)
		assert.NotZero(t, l.ID)
		assert.False(t, l.CreatedAt.IsZero())
		assert.Equal(t, l.CreatedAt, l.UpdatedAt)
	})

	t.Run("rejects a duplicate slug", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		require.NoError(t, repo.Create(context.Background(),
			&link.Link{OriginalURL: "https://a.example.com", Slug: "dup", IsActive: true}))

		err := repo.Create(context.Background(),
			&link.Link{OriginalURL: "https://b.example.com", Slug: "dup", IsActive: true})

		assert.ErrorIs(t, err, link.ErrSlugTaken)
	})

	t.Run("concurrent creates with the same slug admit exactly one", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		const n = 16

		var (
			wg        sync.WaitGroup
			successes int64
			mu        sync.Mutex
		)

		wg.Add(n)

		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()

				err := repo.Create(context.Background(),
					&link.Link{OriginalURL: "https://example.com", Slug: "contested", IsActive: true})
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, link.ErrSlugTaken)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, int64(1), successes)
	})
}

func TestMemoryRepository_Lookups(t *testing.T) {
	t.Run("finds by slug regardless of owner", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		require.NoError(t, repo.Create(context.Background(), owned("https://example.com", "abc", 1)))

		got, err := repo.FindBySlug(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)
	})

	t.Run("missing slug is not found", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		_, err := repo.FindBySlug(context.Background(), "nosuch")

		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("find by original matches only the given owner", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		require.NoError(t, repo.Create(context.Background(), owned("https://example.com", "abc", 1)))

		got, err := repo.FindByOriginal(context.Background(), "https://example.com", 1)
		require.NoError(t, err)
		assert.Equal(t, "abc", got.Slug)

		_, err = repo.FindByOriginal(context.Background(), "https://example.com", 2)
		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("find by original never matches anonymous rows", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		require.NoError(t, repo.Create(context.Background(),
			&link.Link{OriginalURL: "https://example.com", Slug: "anon", IsActive: true}))

		_, err := repo.FindByOriginal(context.Background(), "https://example.com", 1)

		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("find owned requires both id and owner to match", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		l := owned("https://example.com", "abc", 1)
		require.NoError(t, repo.Create(context.Background(), l))

		_, err := repo.FindOwned(context.Background(), l.ID, 1)
		require.NoError(t, err)

		_, err = repo.FindOwned(context.Background(), l.ID, 2)
		assert.ErrorIs(t, err, link.ErrNotFound)

		_, err = repo.FindOwned(context.Background(), l.ID+99, 1)
		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		require.NoError(t, repo.Create(context.Background(), owned("https://example.com", "abc", 1)))

		got, err := repo.FindBySlug(context.Background(), "abc")
		require.NoError(t, err)

		got.OriginalURL = "mutated"

		again, err := repo.FindBySlug(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", again.OriginalURL)
	})
}

func TestMemoryRepository_UpdateSlug(t *testing.T) {
	t.Run("moves the link to the new slug", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		l := owned("https://example.com", "old", 1)
		require.NoError(t, repo.Create(context.Background(), l))

		updated, err := repo.UpdateSlug(context.Background(), l, "new")

		require.NoError(t, err)
		assert.Equal(t, "new", updated.Slug)
		assert.True(t, updated.UpdatedAt.After(l.UpdatedAt) || updated.UpdatedAt.Equal(l.UpdatedAt))

		_, err = repo.FindBySlug(context.Background(), "old")
		assert.ErrorIs(t, err, link.ErrNotFound)

		got, err := repo.FindBySlug(context.Background(), "new")
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
	})

	t.Run("rejects a slug held by another link", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		a := owned("https://a.example.com", "mine", 1)
		b := owned("https://b.example.com", "theirs", 2)
		require.NoError(t, repo.Create(context.Background(), a))
		require.NoError(t, repo.Create(context.Background(), b))

		_, err := repo.UpdateSlug(context.Background(), a, "theirs")

		assert.ErrorIs(t, err, link.ErrSlugTaken)
	})

	t.Run("updating to the current slug is allowed", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		l := owned("https://example.com", "same", 1)
		require.NoError(t, repo.Create(context.Background(), l))

		updated, err := repo.UpdateSlug(context.Background(), l, "same")

		require.NoError(t, err)
		assert.Equal(t, "same", updated.Slug)
	})
}

func TestMemoryRepository_RecordVisit(t *testing.T) {
	t.Run("appends the row and increments the counter together", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		l := owned("https://example.com", "abc", 1)
		require.NoError(t, repo.Create(context.Background(), l))

		err := repo.RecordVisit(context.Background(), &link.Visit{
			LinkID:    l.ID,
			IPAddress: "203.0.113.1",
			UserAgent: "agent",
		})

		require.NoError(t, err)

		got, err := repo.FindBySlug(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.VisitCount)

		visits := repo.Visits(l.ID)
		require.Len(t, visits, 1)
		assert.NotZero(t, visits[0].ID)
		assert.False(t, visits[0].CreatedAt.IsZero())
	})

	t.Run("fails for an unknown link", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		err := repo.RecordVisit(context.Background(), &link.Visit{LinkID: 99})

		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("concurrent visits never lose counts", func(t *testing.T) {
		repo := store.NewMemoryRepository()
		l := owned("https://example.com", "abc", 1)
		require.NoError(t, repo.Create(context.Background(), l))

		const n = 64

		var wg sync.WaitGroup
		wg.Add(n)

		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.RecordVisit(context.Background(), &link.Visit{LinkID: l.ID}))
			}()
		}

		wg.Wait()

		got, err := repo.FindBySlug(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.VisitCount)
		assert.Len(t, repo.Visits(l.ID), n)
	})
}

func TestMemoryRepository_ListByOwner(t *testing.T) {
	t.Run("orders newest first by default", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		first := owned("https://a.example.com", "a", 1)
		require.NoError(t, repo.Create(context.Background(), first))

		time.Sleep(2 * time.Millisecond)

		second := owned("https://b.example.com", "b", 1)
		require.NoError(t, repo.Create(context.Background(), second))

		links, err := repo.ListByOwner(context.Background(), 1, link.SortCreatedAt)

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, second.ID, links[0].ID)
		assert.Equal(t, first.ID, links[1].ID)
	})

	t.Run("orders by visit count for popularity", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		quiet := owned("https://a.example.com", "quiet", 1)
		busy := owned("https://b.example.com", "busy", 1)
		require.NoError(t, repo.Create(context.Background(), quiet))
		require.NoError(t, repo.Create(context.Background(), busy))

		for i := 0; i < 5; i++ {
			require.NoError(t, repo.RecordVisit(context.Background(), &link.Visit{LinkID: busy.ID}))
		}

		links, err := repo.ListByOwner(context.Background(), 1, link.SortPopularity)

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, busy.ID, links[0].ID)
	})

	t.Run("an owner with no links gets an empty list", func(t *testing.T) {
		repo := store.NewMemoryRepository()

		links, err := repo.ListByOwner(context.Background(), 7, link.SortCreatedAt)

		require.NoError(t, err)
		assert.Empty(t, links)
	})
}
