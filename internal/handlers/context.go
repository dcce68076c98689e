package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for visit accounting and events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

type ownerKey struct{}

// ContextWithOwner records the authenticated owner id in the context. The
// id is supplied by the auth middleware; this package only trusts it.
func ContextWithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner id, or nil for an
// anonymous request.
func OwnerFromContext(ctx context.Context) *int64 {
	if id, ok := ctx.Value(ownerKey{}).(int64); ok {
		return &id
	}

	return nil
}
