package testutil

import (
	"net/http"
	"time"

	"kycore/pkg/requestcontext"
)

// WithRequestMetadata stamps req the way the platform middleware chain would.
// Empty values are left unset.
func WithRequestMetadata(req *http.Request, requestID, clientIP string, now time.Time) *http.Request {
	ctx := req.Context()
	if requestID != "" {
		ctx = requestcontext.WithRequestID(ctx, requestID)
	}
	if clientIP != "" {
		ctx = requestcontext.WithClientMetadata(ctx, clientIP, req.UserAgent())
	}
	if !now.IsZero() {
		ctx = requestcontext.WithTime(ctx, now)
	}
	return req.WithContext(ctx)
}
