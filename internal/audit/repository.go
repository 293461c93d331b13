package audit

import "context"

// Repository persists audit entries. There is intentionally no update or
// delete operation.
type Repository interface {
	// Append stores a new entry.
	Append(ctx context.Context, entry *Entry) error

	// ListByEntity returns the entries recorded against one entity, oldest first.
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]*Entry, error)

	// List returns the most recent entries, newest first.
	List(ctx context.Context, opts ListOptions) ([]*Entry, error)
}
