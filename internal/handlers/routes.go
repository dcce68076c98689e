package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkyhq/linky/internal/ratelimit"
)

// RegisterRoutes registers all link routes with per-endpoint rate limit
// configuration.
func RegisterRoutes(api huma.API, linkHandler *LinkHandler) {
	// POST /api/shorten - create a shortened link.
	// Stricter limits: creation triggers an outbound reachability probe.
	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/api/shorten",
		Summary:       "Shorten a URL",
		Description:   "Creates a shortened link. Authenticated owners get their existing link back instead of a duplicate.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, linkHandler.Shorten)

	// GET /r/{slug} - redirect to the original URL.
	// Relaxed limits for the high-traffic read path.
	huma.Register(api, huma.Operation{
		Method:        http.MethodGet,
		Path:          "/r/{slug}",
		Summary:       "Redirect to original URL",
		Description:   "Redirects permanently to the URL behind the slug, counting the visit unless client=true.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusMovedPermanently,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, linkHandler.Redirect)

	// PATCH /api/urls/{id}/slug - rename a link's slug.
	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/api/urls/{id}/slug",
		Summary:     "Rename a slug",
		Description: "Changes the slug of a link owned by the caller.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 30},
				},
			},
		},
	}, linkHandler.Rename)

	// GET /api/urls - list the caller's links.
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/api/urls",
		Summary:     "List own links",
		Description: "Lists the caller's links, ordered by creation time or popularity.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 60},
				},
			},
		},
	}, linkHandler.ListOwned)
}
