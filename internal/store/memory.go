package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linkyhq/linky/internal/link"
)

// MemoryRepository is an in-memory implementation of link.Repository.
// It mirrors the store-level guarantees the service relies on: slug
// uniqueness enforced at write time and an indivisible visit-row append +
// counter increment.
type MemoryRepository struct {
	mu          sync.Mutex
	links       map[int64]*link.Link
	bySlug      map[string]int64
	visits      []*link.Visit
	nextLinkID  int64
	nextVisitID int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		links:  make(map[int64]*link.Link),
		bySlug: make(map[string]int64),
	}
}

func (m *MemoryRepository) Create(_ context.Context, l *link.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.bySlug[l.Slug]; taken {
		return link.ErrSlugTaken
	}

	m.nextLinkID++
	l.ID = m.nextLinkID

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	stored := *l
	m.links[l.ID] = &stored
	m.bySlug[l.Slug] = l.ID

	return nil
}

func (m *MemoryRepository) FindBySlug(_ context.Context, slug string) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return nil, link.ErrNotFound
	}

	return copyLink(m.links[id]), nil
}

func (m *MemoryRepository) FindByOriginal(_ context.Context, originalURL string, ownerID int64) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.OwnerID != nil && *l.OwnerID == ownerID && l.OriginalURL == originalURL {
			return copyLink(l), nil
		}
	}

	return nil, link.ErrNotFound
}

func (m *MemoryRepository) FindOwned(_ context.Context, id, ownerID int64) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok || l.OwnerID == nil || *l.OwnerID != ownerID {
		return nil, link.ErrNotFound
	}

	return copyLink(l), nil
}

func (m *MemoryRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.bySlug[slug]

	return ok, nil
}

func (m *MemoryRepository) UpdateSlug(_ context.Context, current *link.Link, newSlug string) (*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[current.ID]
	if !ok {
		return nil, link.ErrNotFound
	}

	if holder, taken := m.bySlug[newSlug]; taken && holder != current.ID {
		return nil, link.ErrSlugTaken
	}

	delete(m.bySlug, l.Slug)
	l.Slug = newSlug
	l.UpdatedAt = time.Now()
	m.bySlug[newSlug] = current.ID

	return copyLink(l), nil
}

func (m *MemoryRepository) RecordVisit(_ context.Context, v *link.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[v.LinkID]
	if !ok {
		return link.ErrNotFound
	}

	m.nextVisitID++
	v.ID = m.nextVisitID
	v.CreatedAt = time.Now()

	stored := *v
	m.visits = append(m.visits, &stored)
	l.VisitCount++

	return nil
}

func (m *MemoryRepository) ListByOwner(_ context.Context, ownerID int64, by link.Sort) ([]*link.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var owned []*link.Link

	for _, l := range m.links {
		if l.OwnerID != nil && *l.OwnerID == ownerID {
			owned = append(owned, copyLink(l))
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if by == link.SortPopularity {
			return owned[i].VisitCount > owned[j].VisitCount
		}

		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	return owned, nil
}

// Deactivate clears a link's active flag. Not part of link.Repository; test
// support for the soft-delete path the dispatcher must honor.
func (m *MemoryRepository) Deactivate(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.links[id]; ok {
		l.IsActive = false
	}
}

// Visits returns the visit rows recorded for a link, oldest first.
func (m *MemoryRepository) Visits(linkID int64) []*link.Visit {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*link.Visit

	for _, v := range m.visits {
		if v.LinkID == linkID {
			stored := *v
			out = append(out, &stored)
		}
	}

	return out
}

func copyLink(l *link.Link) *link.Link {
	c := *l

	return &c
}

// Compile-time check.
var _ link.Repository = (*MemoryRepository)(nil)
