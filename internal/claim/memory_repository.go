package claim

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu        sync.RWMutex
	claims    map[string]*Claim // keyed by claim ID
	protocols map[string]string // protocol number -> claim ID
}

// NewInMemoryRepository creates a new in-memory claim repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		claims:    make(map[string]*Claim),
		protocols: make(map[string]string),
	}
}

// Create creates a new claim.
func (r *InMemoryRepository) Create(_ context.Context, claim *Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.protocols[claim.ProtocolNumber]; taken {
		return ErrDuplicateProtocol
	}

	r.claims[claim.ID] = copyClaim(claim)
	r.protocols[claim.ProtocolNumber] = claim.ID
	return nil
}

// Get retrieves a claim by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claim, ok := r.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return copyClaim(claim), nil
}

// GetActiveByProtocol retrieves an active claim by its protocol number.
func (r *InMemoryRepository) GetActiveByProtocol(_ context.Context, protocolNumber string) (*Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.protocols[protocolNumber]
	if !ok || !r.claims[id].IsActive {
		return nil, ErrClaimNotFound
	}
	return copyClaim(r.claims[id]), nil
}

// Update persists the mutable fields of an existing claim.
func (r *InMemoryRepository) Update(_ context.Context, claim *Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.claims[claim.ID]
	if !ok {
		return ErrClaimNotFound
	}

	stored.Status = claim.Status
	stored.RepairShop = claim.RepairShop
	stored.EstimatedCost = claim.EstimatedCost
	stored.ActualCost = claim.ActualCost
	stored.RepairDate = claim.RepairDate
	stored.RejectionReason = claim.RejectionReason
	stored.AdminNotes = claim.AdminNotes
	stored.CompletionDate = claim.CompletionDate
	stored.IsActive = claim.IsActive
	stored.UpdatedAt = claim.UpdatedAt
	r.claims[claim.ID] = copyClaim(stored)
	return nil
}

// copyClaim creates a deep copy of a claim.
func copyClaim(c *Claim) *Claim {
	if c == nil {
		return nil
	}

	claimCopy := *c
	claimCopy.EvidencePhotos = slices.Clone(c.EvidencePhotos)
	claimCopy.Documents = slices.Clone(c.Documents)
	claimCopy.RepairShop = clonePtr(c.RepairShop)
	claimCopy.EstimatedCost = clonePtr(c.EstimatedCost)
	claimCopy.ActualCost = clonePtr(c.ActualCost)
	claimCopy.RepairDate = clonePtr(c.RepairDate)
	claimCopy.RejectionReason = clonePtr(c.RejectionReason)
	claimCopy.AdminNotes = clonePtr(c.AdminNotes)
	claimCopy.CompletionDate = clonePtr(c.CompletionDate)
	return &claimCopy
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ Repository = (*InMemoryRepository)(nil)
