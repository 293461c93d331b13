package resilience

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/starshield/warranty/internal/telemetry"
)

// ErrCircuitOpen is returned when the provider's breaker rejects the call.
var ErrCircuitOpen = errors.New("provider circuit open")

// ServerError reports a 5xx answer from a provider.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider answered %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ThrottledError reports a 429 answer. It is retried but never trips the
// breaker.
type ThrottledError struct{}

func (*ThrottledError) Error() string {
	return "provider throttled the request"
}

// ClientConfig configures a Client. Zero values take the defaults noted on
// each field.
type ClientConfig struct {
	// Name identifies the provider in the registry, metrics and breaker.
	Name string

	// Timeout bounds each attempt. Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first. Default: 3
	MaxRetries uint64

	// InitialInterval and MaxInterval bound the exponential backoff between
	// attempts. Defaults: 200ms and 5 seconds
	InitialInterval time.Duration
	MaxInterval     time.Duration

	Breaker BreakerConfig

	// Registry, when set, tracks the client under Name.
	Registry *Registry

	// Metrics, when set, records every call.
	Metrics *telemetry.ProviderMetrics
}

// DefaultClientConfig returns the configuration used for outbound email.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Client sends HTTP requests to a single provider. Transport errors, 5xx and
// 429 answers are retried with exponential backoff; 5xx and transport errors
// count against the breaker.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient builds a Client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	defaults := DefaultClientConfig(cfg.Name)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(cfg.Name, cfg.Breaker),
	}
	cfg.Registry.track(cfg.Name, c.breaker)
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Do sends req, retrying as described on Client. A request with a body must
// set GetBody so it can be replayed; http.NewRequestWithContext does so for
// bytes and strings readers. When retries run out on a 5xx or 429 the last
// response is returned without error so the caller can read it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.send(req)

	outcome := err
	if err == nil && resp.StatusCode >= http.StatusInternalServerError {
		outcome = &ServerError{StatusCode: resp.StatusCode}
	}
	c.cfg.Metrics.RecordRequest(c.cfg.Name, req.Method+" "+req.URL.Path, time.Since(start), outcome)
	c.cfg.Registry.observe(c.cfg.Name, outcome)

	return resp, err
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	var last *http.Response
	keep := func(resp *http.Response) {
		if last != nil {
			discard(last)
		}
		last = resp
	}

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			return c.roundTrip(req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if resp != nil {
			keep(resp)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialInterval
	policy.MaxInterval = c.cfg.MaxInterval
	policy.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.MaxRetries), req.Context()))
	if last != nil {
		return last, nil
	}
	return nil, err
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp, &ThrottledError{}
	case resp.StatusCode >= http.StatusInternalServerError:
		return resp, &ServerError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// discard drains and closes a response that is being replaced by a retry.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
