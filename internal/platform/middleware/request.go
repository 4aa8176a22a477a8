package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"retiro/pkg/requestcontext"
)

// RequestMetadata stamps each request with an id and a request-scoped "now" so
// every write inside one request shares a single timestamp.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
