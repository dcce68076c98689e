package handlers

import "time"

// LinkSummary is the wire form of a shortened link.
type LinkSummary struct {
	ID           int64     `doc:"Link identifier"           json:"id"`
	OriginalURL  string    `doc:"The destination URL"       json:"original_url"`
	Slug         string    `doc:"The short slug"            json:"slug"`
	ShortenedURL string    `doc:"The full shortened URL"    json:"shortened_url"`
	OwnerID      *int64    `doc:"Owning user, if any"       json:"owner_id,omitempty"`
	VisitCount   int64     `doc:"Counted visits"            json:"visit_count"`
	CreatedAt    time.Time `doc:"Creation time"             json:"created_at"`
	UpdatedAt    time.Time `doc:"Last modification time"    json:"updated_at"`
}

// ShortenRequest is the request body for creating a shortened link.
type ShortenRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"example.com/very/long/path" json:"url"`
	}
}

// ShortenResponse is the response for a shorten request. Status is 201 for a
// new link and 409 when the owner had already shortened the URL, in which
// case the pre-existing record is returned.
type ShortenResponse struct {
	Status int
	Body   struct {
		ID           int64     `json:"id"`
		OriginalURL  string    `json:"original_url"`
		Slug         string    `json:"slug"`
		ShortenedURL string    `json:"shortened_url"`
		OwnerID      *int64    `json:"owner_id,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		IsReachable  bool      `json:"is_reachable"`
		Message      string    `json:"message,omitempty"`
	}
}

// RedirectRequest is the request for resolving a slug.
type RedirectRequest struct {
	Slug   string `doc:"The short slug"                                      path:"slug"`
	Client bool   `doc:"Existence check only; skips visit accounting" query:"client"`
}

// RedirectResponse redirects permanently to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// RenameRequest is the request for changing a link's slug.
type RenameRequest struct {
	ID   int64 `doc:"Link identifier" path:"id"`
	Body struct {
		NewSlug string `doc:"The new slug" example:"my-link" json:"new_slug"`
	}
}

// RenameResponse is the response for a rename request. Status is 409 when
// the slug belongs to a different link; Conflict then carries that record.
type RenameResponse struct {
	Status int
	Body   struct {
		ID            int64        `json:"id,omitempty"`
		OriginalURL   string       `json:"original_url,omitempty"`
		Slug          string       `json:"slug,omitempty"`
		ShortenedURL  string       `json:"shortened_url,omitempty"`
		CreatedAt     time.Time    `json:"created_at,omitzero"`
		UpdatedAt     time.Time    `json:"updated_at,omitzero"`
		SlugUnchanged bool         `json:"slug_unchanged,omitempty"`
		Message       string       `json:"message,omitempty"`
		Conflict      *LinkSummary `json:"conflict,omitempty"`
	}
}

// ListRequest is the request for listing the caller's links.
type ListRequest struct {
	Sort string `doc:"Ordering, descending" enum:"created_at,popularity" query:"sort"`
}

// ListResponse is the response for a list request.
type ListResponse struct {
	Body struct {
		URLs   []LinkSummary `json:"urls"`
		Count  int           `json:"count"`
		SortBy string        `json:"sort_by"`
	}
}
