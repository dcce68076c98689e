package link

import "context"

// Repository defines the storage operations for links and visits.
//
// Implementations must enforce slug uniqueness with a store-level constraint
// and report violations as ErrSlugTaken; pre-checks done by callers are
// optimistic only. Lookups that find nothing return ErrNotFound.
type Repository interface {
	// Create inserts a new link and fills in its store-generated identity
	// and timestamps.
	Create(ctx context.Context, l *Link) error

	// FindBySlug looks a link up by its slug, ignoring ownership.
	FindBySlug(ctx context.Context, slug string) (*Link, error)

	// FindByOriginal looks up an owner's existing link for an original URL.
	// Used for per-owner de-duplication; anonymous links are never matched.
	FindByOriginal(ctx context.Context, originalURL string, ownerID int64) (*Link, error)

	// FindOwned loads a link scoped to (id, ownerID). A wrong id and a
	// not-owned link both return ErrNotFound.
	FindOwned(ctx context.Context, id, ownerID int64) (*Link, error)

	// SlugExists reports whether any link holds the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// UpdateSlug persists a new slug for the given link and refreshes
	// updated_at, returning the updated record. The full current record is
	// passed so decorators can invalidate state keyed by the old slug.
	UpdateSlug(ctx context.Context, current *Link, newSlug string) (*Link, error)

	// RecordVisit appends a visit row and increments the owning link's
	// visit_count as a single atomic unit: either both happen or neither.
	RecordVisit(ctx context.Context, v *Visit) error

	// ListByOwner returns all of an owner's links, ordered descending by the
	// given sort.
	ListByOwner(ctx context.Context, ownerID int64, sort Sort) ([]*Link, error)
}
