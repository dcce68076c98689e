package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/linkyhq/linky/internal/handlers"
	"go.uber.org/zap"
)

// Owner returns a middleware that extracts the authenticated owner id from a
// bearer token and stores it in the request context.
//
// Session issuance lives outside this service; the middleware only verifies
// the HMAC signature and decodes the subject claim. A missing, malformed, or
// unverifiable token makes the request anonymous rather than rejected;
// endpoints that need an owner enforce that themselves.
func Owner(_ huma.API, secret []byte, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if ownerID, ok := ownerFromHeader(ctx.Header("Authorization"), secret, logger); ok {
			newCtx := handlers.ContextWithOwner(ctx.Context(), ownerID)
			ctx = huma.WithContext(ctx, newCtx)
		}

		next(ctx)
	}
}

func ownerFromHeader(header string, secret []byte, logger *zap.Logger) (int64, bool) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return 0, false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return secret, nil
	})
	if err != nil || !token.Valid {
		logger.Debug("rejected bearer token", zap.Error(err))

		return 0, false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, false
	}

	ownerID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		logger.Debug("bearer token subject is not an owner id",
			zap.String("subject", subject),
		)

		return 0, false
	}

	return ownerID, true
}
