package warranty

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu         sync.RWMutex
	warranties map[string]*Warranty // keyed by warranty ID
	policies   map[string]string    // policy number -> warranty ID
	order      []string             // insertion order, oldest first
}

// NewInMemoryRepository creates a new in-memory warranty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		warranties: make(map[string]*Warranty),
		policies:   make(map[string]string),
	}
}

// Get retrieves a warranty by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Warranty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.warranties[id]
	if !ok {
		return nil, ErrWarrantyNotFound
	}
	return copyWarranty(w), nil
}

// GetActiveByDevice retrieves the ACTIVE warranty of a device.
func (r *InMemoryRepository) GetActiveByDevice(_ context.Context, deviceID string) (*Warranty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		w := r.warranties[id]
		if w.DeviceID == deviceID && w.Status == StatusActive && w.IsActive {
			return copyWarranty(w), nil
		}
	}
	return nil, ErrWarrantyNotFound
}

// GetLatestByDevice retrieves the most recent warranty of a device.
func (r *InMemoryRepository) GetLatestByDevice(_ context.Context, deviceID string) (*Warranty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		w := r.warranties[r.order[i]]
		if w.DeviceID == deviceID && w.IsActive {
			return copyWarranty(w), nil
		}
	}
	return nil, ErrWarrantyNotFound
}

// Create creates a new warranty.
func (r *InMemoryRepository) Create(_ context.Context, w *Warranty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.policies[w.PolicyNumber]; taken {
		return ErrDuplicatePolicyNumber
	}

	r.warranties[w.ID] = copyWarranty(w)
	r.policies[w.PolicyNumber] = w.ID
	r.order = append(r.order, w.ID)
	return nil
}

// UpdateStatus sets the status of a warranty.
func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, status Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.warranties[id]
	if !ok {
		return ErrWarrantyNotFound
	}
	w.Status = status
	w.UpdatedAt = at
	return nil
}

// IncrementUsedClaims adds one used claim while below quota.
func (r *InMemoryRepository) IncrementUsedClaims(_ context.Context, id string, at time.Time) (*Warranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.warranties[id]
	if !ok {
		return nil, ErrWarrantyNotFound
	}
	if w.UsedClaims >= w.MaxClaims {
		return nil, ErrQuotaExceeded
	}
	w.UsedClaims++
	w.UpdatedAt = at
	return copyWarranty(w), nil
}

func copyWarranty(w *Warranty) *Warranty {
	if w == nil {
		return nil
	}
	warrantyCopy := *w
	return &warrantyCopy
}

var _ Repository = (*InMemoryRepository)(nil)
