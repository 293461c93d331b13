// Package resilience guards calls to outbound providers, such as the email
// API, with a circuit breaker and bounded retries, and keeps a registry of
// provider health for the status endpoint.
package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker in front of a provider. Zero
// values take the defaults noted on each field.
type BreakerConfig struct {
	// HalfOpenProbes is the number of requests let through while half-open.
	// Default: 1
	HalfOpenProbes uint32

	// Window clears the failure counts while closed, so a provider is judged
	// on recent traffic. Default: 2 minutes
	Window time.Duration

	// CoolDown is how long the breaker stays open before probing.
	// Default: 30 seconds
	CoolDown time.Duration

	// ReadyToTrip decides when to open the breaker. Default: ShouldTrip
	ReadyToTrip func(gobreaker.Counts) bool

	// OnStateChange observes transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// ShouldTrip opens the breaker after three consecutive failures, or once at
// least ten requests have been seen in the window and half of them failed.
func ShouldTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= 3 {
		return true
	}
	return counts.Requests >= 10 && counts.TotalFailures*2 >= counts.Requests
}

func (b BreakerConfig) settings(name string) gobreaker.Settings {
	s := gobreaker.Settings{
		Name:          name,
		MaxRequests:   b.HalfOpenProbes,
		Interval:      b.Window,
		Timeout:       b.CoolDown,
		ReadyToTrip:   b.ReadyToTrip,
		OnStateChange: b.OnStateChange,
		IsSuccessful:  countsAsSuccess,
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = 2 * time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = ShouldTrip
	}
	return s
}

// countsAsSuccess keeps throttling out of the failure counts: a provider
// answering 429 is up, it is only asking us to slow down.
func countsAsSuccess(err error) bool {
	var throttled *ThrottledError
	return err == nil || errors.As(err, &throttled)
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](cfg.settings(name))
}
