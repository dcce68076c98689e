package link

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/linkyhq/linky/internal/analytics"
	"github.com/linkyhq/linky/internal/messaging"
	"github.com/linkyhq/linky/internal/urlcheck"
	"go.uber.org/zap"
)

// renamePattern restricts caller-chosen slugs. System-generated slugs come
// from the allocator's alphabet and always satisfy it.
var renamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,25}$`)

// createRetries bounds how often a create is retried after losing a slug
// race to a concurrent insert.
const createRetries = 3

// URLValidator is the validation step of the creation flow.
type URLValidator interface {
	Validate(ctx context.Context, rawURL string) urlcheck.Result
}

// ShortenRequest asks for a new shortened link.
type ShortenRequest struct {
	URL       string
	OwnerID   *int64 // nil for anonymous creation
	ClientIP  string
	UserAgent string
}

// ShortenResult is the outcome of a shorten request. Existing is set when
// the owner had already shortened the URL and the pre-existing record was
// returned instead of a new one.
type ShortenResult struct {
	Link      *Link
	Existing  bool
	Reachable bool
}

// ResolveRequest asks for the redirect target of a slug.
type ResolveRequest struct {
	Slug       string
	CountVisit bool
	IPAddress  string
	UserAgent  string
	Referrer   string
}

// RenameRequest asks to change a link's slug.
type RenameRequest struct {
	LinkID  int64
	OwnerID *int64
	NewSlug string
}

// RenameResult is the outcome of a rename. SlugUnchanged is set when the
// requested slug equaled the current one and nothing was written.
type RenameResult struct {
	Link          *Link
	SlugUnchanged bool
}

// Service implements the slug lifecycle: creation with per-owner
// de-duplication, redirect resolution with visit accounting, renaming, and
// owner listings.
type Service struct {
	repo           Repository
	alloc          *Allocator
	validate       URLValidator
	publishCreated messaging.Publish[analytics.LinkCreatedEvent]
	publishVisited messaging.Publish[analytics.LinkVisitedEvent]
	logger         *zap.Logger
}

// NewService creates a link service.
func NewService(
	repo Repository,
	alloc *Allocator,
	validate URLValidator,
	publishCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishVisited messaging.Publish[analytics.LinkVisitedEvent],
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:           repo,
		alloc:          alloc,
		validate:       validate,
		publishCreated: publishCreated,
		publishVisited: publishVisited,
		logger:         logger,
	}
}

// Shorten validates the URL, de-duplicates per owner, allocates a slug, and
// persists the link.
//
// An authenticated owner shortening a URL they already shortened gets the
// pre-existing record back with Existing set, never a second row. Anonymous
// creations are never de-duplicated. A slug lost to a concurrent insert
// between the allocator's check and the write is absorbed by reallocating.
func (s *Service) Shorten(ctx context.Context, req ShortenRequest) (*ShortenResult, error) {
	verdict := s.validate.Validate(ctx, req.URL)
	if !verdict.IsValid {
		return nil, &ValidationError{Reason: "invalid URL format"}
	}

	if req.OwnerID != nil {
		existing, err := s.repo.FindByOriginal(ctx, verdict.FinalURL, *req.OwnerID)
		if err == nil {
			return &ShortenResult{
				Link:      existing,
				Existing:  true,
				Reachable: verdict.IsReachable,
			}, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	for attempt := 0; attempt < createRetries; attempt++ {
		slug, err := s.alloc.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		l := &Link{
			OriginalURL: verdict.FinalURL,
			Slug:        slug,
			OwnerID:     req.OwnerID,
			IsActive:    true,
		}

		err = s.repo.Create(ctx, l)
		if errors.Is(err, ErrSlugTaken) {
			continue
		}

		if err != nil {
			return nil, err
		}

		s.emitCreated(l, verdict.IsReachable, req)

		return &ShortenResult{Link: l, Reachable: verdict.IsReachable}, nil
	}

	return nil, fmt.Errorf("slug allocation lost %d consecutive races", createRetries)
}

// Resolve returns the redirect target for a slug.
//
// A slug that never existed and a link with IsActive cleared produce the same
// ErrNotFound, so deactivation state cannot be probed. A stored URL that no
// longer passes the strict format check is treated the same way. When
// CountVisit is set the visit row and the counter increment are applied as
// one atomic store operation; when clear, resolution is a pure read.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (string, error) {
	l, err := s.repo.FindBySlug(ctx, req.Slug)
	if err != nil {
		return "", err
	}

	if !l.IsActive {
		return "", ErrNotFound
	}

	if !urlcheck.ValidFormat(l.OriginalURL, true) {
		s.logger.Warn("stored URL fails strict validation",
			zap.String("slug", l.Slug),
			zap.Int64("id", l.ID),
		)

		return "", ErrNotFound
	}

	if req.CountVisit {
		visit := &Visit{
			LinkID:    l.ID,
			IPAddress: req.IPAddress,
			UserAgent: req.UserAgent,
		}

		if err := s.repo.RecordVisit(ctx, visit); err != nil {
			return "", err
		}

		s.emitVisited(l, req)
	}

	return l.OriginalURL, nil
}

// Rename changes a link's slug on behalf of its owner.
//
// The link is loaded scoped to (LinkID, OwnerID); a wrong id and a not-owned
// link are both ErrNotFound. A slug held by a different record is a
// ConflictError carrying that record, including when a concurrent rename
// wins between the pre-check and the write. Renaming to the current slug is
// a no-op reported via SlugUnchanged.
func (s *Service) Rename(ctx context.Context, req RenameRequest) (*RenameResult, error) {
	if req.OwnerID == nil {
		return nil, ErrForbidden
	}

	if !renamePattern.MatchString(req.NewSlug) {
		return nil, &ValidationError{Reason: "invalid slug format"}
	}

	l, err := s.repo.FindOwned(ctx, req.LinkID, *req.OwnerID)
	if err != nil {
		return nil, err
	}

	holder, err := s.repo.FindBySlug(ctx, req.NewSlug)
	if err == nil && holder.ID != l.ID {
		return nil, &ConflictError{Existing: holder}
	}

	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if l.Slug == req.NewSlug {
		return &RenameResult{Link: l, SlugUnchanged: true}, nil
	}

	updated, err := s.repo.UpdateSlug(ctx, l, req.NewSlug)
	if errors.Is(err, ErrSlugTaken) {
		// A concurrent rename won between the check and the write.
		conflict := &ConflictError{}
		if winner, ferr := s.repo.FindBySlug(ctx, req.NewSlug); ferr == nil {
			conflict.Existing = winner
		}

		return nil, conflict
	}

	if err != nil {
		return nil, err
	}

	return &RenameResult{Link: updated}, nil
}

// ListOwned returns an owner's links ordered descending by the given sort.
func (s *Service) ListOwned(ctx context.Context, ownerID int64, sort Sort) ([]*Link, error) {
	if sort != SortPopularity {
		sort = SortCreatedAt
	}

	return s.repo.ListByOwner(ctx, ownerID, sort)
}

func (s *Service) emitCreated(l *Link, reachable bool, req ShortenRequest) {
	event := &analytics.LinkCreatedEvent{
		EventID:     uuid.NewString(),
		LinkID:      l.ID,
		Slug:        l.Slug,
		OriginalURL: l.OriginalURL,
		OwnerID:     l.OwnerID,
		Reachable:   reachable,
		CreatedAt:   l.CreatedAt,
		ClientIP:    req.ClientIP,
		UserAgent:   req.UserAgent,
	}

	if err := s.publishCreated(event); err != nil {
		s.logger.Error("failed to publish link created event",
			zap.String("slug", l.Slug),
			zap.Error(err),
		)
	}
}

func (s *Service) emitVisited(l *Link, req ResolveRequest) {
	event := &analytics.LinkVisitedEvent{
		EventID:   uuid.NewString(),
		LinkID:    l.ID,
		Slug:      l.Slug,
		VisitedAt: time.Now(),
		ClientIP:  req.IPAddress,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
	}

	if err := s.publishVisited(event); err != nil {
		s.logger.Error("failed to publish link visited event",
			zap.String("slug", l.Slug),
			zap.Error(err),
		)
	}
}
