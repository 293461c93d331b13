package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeUnmatched labels requests that no route accepted.
const routeUnmatched = "unmatched"

// routePattern returns the chi route pattern that served r, such as
// /claims/protocol/{protocolNumber}. Protocol numbers and claim IDs in the
// raw path are unbounded, so telemetry is keyed on the pattern. Outside a
// chi router the raw path is returned.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return routeUnmatched
}
