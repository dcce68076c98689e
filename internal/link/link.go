package link

import "time"

// Link represents a shortened link.
type Link struct {
	ID          int64
	OriginalURL string
	Slug        string
	OwnerID     *int64 // nil for anonymously created links
	VisitCount  int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Visit is one counted redirect, logged append-only.
type Visit struct {
	ID        int64
	LinkID    int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Sort selects the ordering for owner listings.
type Sort string

const (
	// SortCreatedAt orders by creation time, newest first.
	SortCreatedAt Sort = "created_at"
	// SortPopularity orders by visit count, highest first.
	SortPopularity Sort = "popularity"
)
