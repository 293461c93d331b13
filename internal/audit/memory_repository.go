package audit

import (
	"context"
	"maps"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Append stores a new entry.
func (r *InMemoryRepository) Append(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, copyEntry(entry))
	return nil
}

// ListByEntity returns the entries recorded against one entity, oldest first.
func (r *InMemoryRepository) ListByEntity(_ context.Context, entityType EntityType, entityID string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Entry
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			items = append(items, copyEntry(e))
		}
	}
	return items, nil
}

// List returns the most recent entries, newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	items := make([]*Entry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, copyEntry(r.entries[i]))
	}
	return items, nil
}

func copyEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	entryCopy := *e
	entryCopy.Metadata = maps.Clone(e.Metadata)
	return &entryCopy
}

var _ Repository = (*InMemoryRepository)(nil)
