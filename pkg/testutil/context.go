package testutil

import (
	"net/http"
	"time"

	"retiro/pkg/requestcontext"
)

// WithActor stamps the request context with an authenticated back-office
// actor, simulating what the auth middleware does.
func WithActor(req *http.Request, actorID string) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actorID))
}

// WithRequestTime pins the request-scoped "now" so tests get deterministic
// timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
