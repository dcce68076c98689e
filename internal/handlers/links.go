package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkyhq/linky/internal/link"
	"go.uber.org/zap"
)

// LinkHandler handles shortened-link operations.
type LinkHandler struct {
	service *link.Service
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(service *link.Service, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Shorten handles link creation. An authenticated owner re-shortening a URL
// gets 409 with their existing record; anonymous requests always create.
func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	meta := RequestMetaFromContext(ctx)

	result, err := h.service.Shorten(ctx, link.ShortenRequest{
		URL:       req.Body.URL,
		OwnerID:   OwnerFromContext(ctx),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		return nil, h.mapError(err, "failed to shorten url")
	}

	resp := &ShortenResponse{Status: http.StatusCreated}
	resp.Body.ID = result.Link.ID
	resp.Body.OriginalURL = result.Link.OriginalURL
	resp.Body.Slug = result.Link.Slug
	resp.Body.ShortenedURL = h.shortenedURL(result.Link.Slug)
	resp.Body.OwnerID = result.Link.OwnerID
	resp.Body.CreatedAt = result.Link.CreatedAt
	resp.Body.IsReachable = result.Reachable

	if result.Existing {
		resp.Status = http.StatusConflict
		resp.Body.Message = "URL already exists for this user"
	}

	return resp, nil
}

// Redirect resolves a slug to its destination. Missing and deactivated
// slugs are indistinguishable 404s. The client query flag turns the request
// into a pure existence check with no visit accounting.
func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	target, err := h.service.Resolve(ctx, link.ResolveRequest{
		Slug:       req.Slug,
		CountVisit: !req.Client,
		IPAddress:  meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	})
	if err != nil {
		return nil, h.mapError(err, "failed to resolve slug")
	}

	resp := &RedirectResponse{Status: http.StatusMovedPermanently}
	resp.Headers.Location = target

	return resp, nil
}

// Rename changes a link's slug on behalf of its authenticated owner.
func (h *LinkHandler) Rename(ctx context.Context, req *RenameRequest) (*RenameResponse, error) {
	result, err := h.service.Rename(ctx, link.RenameRequest{
		LinkID:  req.ID,
		OwnerID: OwnerFromContext(ctx),
		NewSlug: req.Body.NewSlug,
	})

	var conflict *link.ConflictError
	if errors.As(err, &conflict) {
		resp := &RenameResponse{Status: http.StatusConflict}
		resp.Body.Message = "Slug already exists, please choose another"

		if conflict.Existing != nil {
			resp.Body.Conflict = h.summary(conflict.Existing)
		}

		return resp, nil
	}

	if err != nil {
		return nil, h.mapError(err, "failed to rename slug")
	}

	resp := &RenameResponse{Status: http.StatusOK}
	resp.Body.ID = result.Link.ID
	resp.Body.OriginalURL = result.Link.OriginalURL
	resp.Body.Slug = result.Link.Slug
	resp.Body.ShortenedURL = h.shortenedURL(result.Link.Slug)
	resp.Body.CreatedAt = result.Link.CreatedAt
	resp.Body.UpdatedAt = result.Link.UpdatedAt

	if result.SlugUnchanged {
		resp.Body.SlugUnchanged = true
	} else {
		resp.Body.Message = "Slug updated successfully"
	}

	return resp, nil
}

// ListOwned returns the caller's links, newest or most visited first.
func (h *LinkHandler) ListOwned(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	owner := OwnerFromContext(ctx)
	if owner == nil {
		return nil, huma.Error401Unauthorized("authentication required to view URLs")
	}

	sortBy := link.SortCreatedAt
	if req.Sort == string(link.SortPopularity) {
		sortBy = link.SortPopularity
	}

	links, err := h.service.ListOwned(ctx, *owner, sortBy)
	if err != nil {
		return nil, h.mapError(err, "failed to list urls")
	}

	resp := &ListResponse{}
	resp.Body.URLs = make([]LinkSummary, 0, len(links))
	resp.Body.Count = len(links)
	resp.Body.SortBy = string(sortBy)

	for _, l := range links {
		resp.Body.URLs = append(resp.Body.URLs, *h.summary(l))
	}

	return resp, nil
}

func (h *LinkHandler) shortenedURL(slug string) string {
	return fmt.Sprintf("%s/r/%s", h.baseURL, slug)
}

func (h *LinkHandler) summary(l *link.Link) *LinkSummary {
	return &LinkSummary{
		ID:           l.ID,
		OriginalURL:  l.OriginalURL,
		Slug:         l.Slug,
		ShortenedURL: h.shortenedURL(l.Slug),
		OwnerID:      l.OwnerID,
		VisitCount:   l.VisitCount,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// mapError translates domain errors into HTTP error responses.
func (h *LinkHandler) mapError(err error, logMsg string) error {
	var validation *link.ValidationError

	switch {
	case errors.As(err, &validation):
		return huma.Error400BadRequest(validation.Reason)
	case errors.Is(err, link.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, link.ErrForbidden):
		return huma.Error403Forbidden("must be logged in")
	case errors.Is(err, link.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable("store unavailable")
	default:
		h.logger.Error(logMsg, zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
