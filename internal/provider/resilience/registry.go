package resilience

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Condition is a provider's health as derived from its breaker.
type Condition int

const (
	// Up means the breaker is closed.
	Up Condition = iota
	// Probing means the breaker is half-open and testing the provider.
	Probing
	// Down means the breaker is open and calls are rejected.
	Down
)

func (c Condition) String() string {
	switch c {
	case Up:
		return "up"
	case Probing:
		return "probing"
	default:
		return "down"
	}
}

func conditionOf(state gobreaker.State) Condition {
	switch state {
	case gobreaker.StateClosed:
		return Up
	case gobreaker.StateHalfOpen:
		return Probing
	default:
		return Down
	}
}

// Health is a point-in-time view of one provider.
type Health struct {
	Name      string
	Condition Condition
	// Requests and Failures are the breaker counts for the current window.
	Requests uint32
	Failures uint32
	// LastSuccess and LastFailure are zero until the first such call.
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
}

type breakerView interface {
	State() gobreaker.State
	Counts() gobreaker.Counts
}

type tracked struct {
	breaker     breakerView
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
}

// Registry records the providers built by NewClient and the outcome of their
// calls. A nil *Registry ignores everything.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*tracked
	now       func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*tracked),
		now:       time.Now,
	}
}

func (r *Registry) track(name string, b breakerView) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &tracked{breaker: b}
}

func (r *Registry) observe(name string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	if !ok {
		return
	}
	if err == nil {
		p.lastSuccess = r.now()
		return
	}
	p.lastFailure = r.now()
	p.lastError = err.Error()
}

func (p *tracked) health(name string) Health {
	counts := p.breaker.Counts()
	return Health{
		Name:        name,
		Condition:   conditionOf(p.breaker.State()),
		Requests:    counts.Requests,
		Failures:    counts.TotalFailures,
		LastSuccess: p.lastSuccess,
		LastFailure: p.lastFailure,
		LastError:   p.lastError,
	}
}

// Lookup returns the health of a single provider.
func (r *Registry) Lookup(name string) (Health, bool) {
	if r == nil {
		return Health{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return Health{}, false
	}
	return p.health(name), true
}

// Snapshot returns the health of every provider, ordered by name.
func (r *Registry) Snapshot() []Health {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, p.health(name))
	}
	slices.SortFunc(out, func(a, b Health) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
