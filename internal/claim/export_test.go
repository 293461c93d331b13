package claim

import (
	"context"
	"slices"
)

// ListByWarranty returns the active claims of a warranty, oldest first.
func (r *InMemoryRepository) ListByWarranty(_ context.Context, warrantyID string) ([]*Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Claim
	for _, c := range r.claims {
		if c.WarrantyID == warrantyID && c.IsActive {
			items = append(items, copyClaim(c))
		}
	}
	slices.SortFunc(items, func(a, b *Claim) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return items, nil
}
