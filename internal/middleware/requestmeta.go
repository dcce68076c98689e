package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkyhq/linky/internal/handlers"
)

// RequestMeta is a middleware that adds client IP, user-agent, and referrer
// to the request context for visit accounting.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// clientIP extracts the client IP from the request, considering proxies.
func clientIP(ctx huma.Context) string {
	// X-Forwarded-For may contain "client, proxy1, proxy2"; take the first.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return normalizeIP(strings.TrimSpace(xff[:idx]))
		}

		return normalizeIP(strings.TrimSpace(xff))
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return normalizeIP(xri)
	}

	host := ctx.Host()

	ip, _, err := net.SplitHostPort(host)
	if err != nil {
		return normalizeIP(host)
	}

	return normalizeIP(ip)
}

// normalizeIP maps the IPv6 loopback onto its IPv4 form so visit rows don't
// mix the two for local traffic.
func normalizeIP(ip string) string {
	if ip == "::1" {
		return "127.0.0.1"
	}

	return ip
}
