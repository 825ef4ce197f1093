package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/b2bconvert/internal/core"
)

// WithRequestMetadata records the client IP and User-Agent for import batches.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMetadata(ctx, core.RequestMetadata{
		IPAddress: r.RemoteAddr, // already rewritten by TrustedRealIP
		UserAgent: r.Header.Get("User-Agent"),
	})
}
