package core

import "context"

type contextKey string

const ctxKeyRequestMeta contextKey = "request_meta"

// RequestMetadata identifies the client behind an upload. It is recorded with
// every stored import batch.
type RequestMetadata struct {
	IPAddress string
	UserAgent string
}

// ContextWithRequestMetadata attaches client metadata to ctx.
func ContextWithRequestMetadata(ctx context.Context, meta RequestMetadata) context.Context {
	return context.WithValue(ctx, ctxKeyRequestMeta, meta)
}

// RequestMetadataFromContext extracts client metadata from ctx. The zero value
// is returned for contexts that carry none, such as CLI runs.
func RequestMetadataFromContext(ctx context.Context) RequestMetadata {
	if v, ok := ctx.Value(ctxKeyRequestMeta).(RequestMetadata); ok {
		return v
	}
	return RequestMetadata{}
}
