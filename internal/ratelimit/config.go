package ratelimit

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the key used to store rate limit config in operation
// metadata.
const MetadataKey = "rateLimit"

// LimitConfig is one limit: at most Max requests per Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// EndpointConfig defines per-endpoint rate limit configuration, attached to
// Huma operations via the Metadata field.
type EndpointConfig struct {
	// Limits defines custom rate limits for this endpoint. When non-empty,
	// the middleware applies these instead of the default limiter.
	Limits []LimitConfig

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the endpoint rate limit config from the current
// operation's metadata, if any.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	if cfg, ok := op.Metadata[MetadataKey].(EndpointConfig); ok {
		return &cfg
	}

	return nil
}
