package link

import "errors"

var (
	// ErrNotFound is returned when a link does not exist, is inactive, or is
	// not owned by the caller. The three cases are deliberately
	// indistinguishable so state cannot be enumerated through error shapes.
	ErrNotFound = errors.New("link not found")

	// ErrSlugTaken is the store's unique-constraint violation on the slug
	// column. The repository is the final authority on uniqueness; any
	// check-then-act caller must be prepared to receive it on write.
	ErrSlugTaken = errors.New("slug already exists")

	// ErrForbidden is returned when an operation requires an authenticated
	// owner and none was supplied.
	ErrForbidden = errors.New("authenticated owner required")

	// ErrStoreUnavailable signals a transient store failure. Callers may
	// retry with backoff; this package never retries it internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports malformed input the client must fix and resend.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ConflictError reports a uniqueness conflict. Existing carries the record
// that holds the contested value when it could be discovered, so callers can
// surface it ("already shortened", "slug taken") instead of a bare error.
type ConflictError struct {
	Existing *Link
}

func (e *ConflictError) Error() string {
	return "conflicting record exists"
}
