package analytics

import "time"

const (
	// TopicLinkCreated carries LinkCreatedEvent messages.
	TopicLinkCreated = "link.created"
	// TopicLinkVisited carries LinkVisitedEvent messages.
	TopicLinkVisited = "link.visited"
)

// LinkCreatedEvent is emitted after a link has been persisted.
type LinkCreatedEvent struct {
	EventID     string    `json:"eventId"`
	LinkID      int64     `json:"linkId"`
	Slug        string    `json:"slug"`
	OriginalURL string    `json:"originalUrl"`
	OwnerID     *int64    `json:"ownerId,omitempty"`
	Reachable   bool      `json:"reachable"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
}

// LinkVisitedEvent is emitted after a counted redirect. The transactional
// visit row is the source of truth; the event mirrors it for downstream
// consumers and is published best-effort after the commit.
type LinkVisitedEvent struct {
	EventID   string    `json:"eventId"`
	LinkID    int64     `json:"linkId"`
	Slug      string    `json:"slug"`
	VisitedAt time.Time `json:"visitedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
}
