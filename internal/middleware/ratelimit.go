package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkyhq/linky/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a middleware limiting requests per client key.
//
// Endpoints can override the default limiter through operation metadata
// (ratelimit.MetadataKey): custom limits are applied against the limiter's
// store keyed by route template, or rate limiting can be disabled entirely.
func RateLimiter(
	api huma.API,
	limiter *ratelimit.SlidingWindowLimiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := clientKey(ctx)

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil {
			if cfg.Disabled {
				next(ctx)

				return
			}

			if len(cfg.Limits) > 0 {
				if checkEndpointLimits(api, ctx, limiter.Store(), key, cfg.Limits, logger) {
					next(ctx)
				}

				return
			}
		}

		allowed, err := limiter.Allow(ctx.Context(), key)
		if err != nil {
			logger.Error("rate limit check failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// checkEndpointLimits applies per-endpoint limits. Returns true if the
// request is allowed.
//
// The rate limit key uses the operation's route template (e.g. "/r/{slug}"),
// so all requests matching the same route share counters per client.
func checkEndpointLimits(
	api huma.API,
	ctx huma.Context,
	store ratelimit.Store,
	clientK string,
	limits []ratelimit.LimitConfig,
	logger *zap.Logger,
) bool {
	path := ""
	if op := ctx.Operation(); op != nil {
		path = op.Path
	}

	for _, limit := range limits {
		key := fmt.Sprintf("%s:%s:%d", clientK, path, limit.Window.Milliseconds())

		count, err := store.Record(ctx.Context(), key, limit.Window)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", path),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return false
		}

		if count > limit.Max {
			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.Int64("count", count),
				zap.Int64("max", limit.Max),
				zap.Duration("window", limit.Window),
			)
			msg := fmt.Sprintf("rate limit exceeded: %d/%d requests in %s",
				count, limit.Max, limit.Window)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return false
		}
	}

	return true
}

// clientKey generates a rate limiting key from client IP and User-Agent.
func clientKey(ctx huma.Context) string {
	ip := clientIP(ctx)
	ua := ctx.Header("User-Agent")

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}
