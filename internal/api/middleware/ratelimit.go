package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/starshield/warranty/internal/api/models"
)

// RateLimit caps requests per client IP within a sliding window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Per-route limits. Registration writes a device and a policy, and protocol
// numbers are sequential enough to enumerate, so both are kept tight.
var (
	RegistrationRateLimit = RateLimit{Requests: 10, Window: time.Minute}
	SubmissionRateLimit   = RateLimit{Requests: 30, Window: time.Minute}
	LookupRateLimit       = RateLimit{Requests: 60, Window: time.Minute}
)

// RateLimitByIP limits each client address, as resolved by chi's RealIP, to
// limit. Counters are kept per route pattern, so requests for different
// protocol numbers share one budget.
func RateLimitByIP(limit RateLimit) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit.Requests,
		limit.Window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP, keyByRoute),
		httprate.WithLimitHandler(limit.exceeded),
	)
}

func keyByRoute(r *http.Request) (string, error) {
	return r.Method + " " + routePattern(r), nil
}

// exceeded answers 429 with a Retry-After of one full window, the longest a
// client can have to wait.
func (l RateLimit) exceeded(w http.ResponseWriter, r *http.Request) {
	seconds := int(math.Ceil(l.Window.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	problem := models.NewTooManyRequests(GetRequestID(r.Context()),
		fmt.Sprintf("Too many requests: limit is %d per %s", l.Requests, l.Window))
	problem.Instance = r.URL.Path
	problem.Write(w)
}
