package claim

import "context"

// Repository defines the interface for claim persistence.
type Repository interface {
	// Create creates a new claim. It returns ErrDuplicateProtocol when the
	// protocol number is taken.
	Create(ctx context.Context, claim *Claim) error

	// Get retrieves a claim by ID.
	Get(ctx context.Context, id string) (*Claim, error)

	// GetActiveByProtocol retrieves an active claim by its protocol number.
	GetActiveByProtocol(ctx context.Context, protocolNumber string) (*Claim, error)

	// Update persists the mutable fields of an existing claim.
	Update(ctx context.Context, claim *Claim) error
}
