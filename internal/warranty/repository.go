package warranty

import (
	"context"
	"time"
)

// Repository defines the interface for warranty persistence.
type Repository interface {
	// Get retrieves a warranty by ID.
	Get(ctx context.Context, id string) (*Warranty, error)

	// GetActiveByDevice retrieves the ACTIVE warranty of a device.
	GetActiveByDevice(ctx context.Context, deviceID string) (*Warranty, error)

	// GetLatestByDevice retrieves the most recently created warranty of a
	// device regardless of status.
	GetLatestByDevice(ctx context.Context, deviceID string) (*Warranty, error)

	// Create creates a new warranty. It returns ErrDuplicatePolicyNumber when
	// the policy number is taken.
	Create(ctx context.Context, warranty *Warranty) error

	// UpdateStatus sets the status of a warranty.
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error

	// IncrementUsedClaims atomically adds one used claim, but only while the
	// warranty is below its quota. It returns ErrQuotaExceeded otherwise.
	IncrementUsedClaims(ctx context.Context, id string, at time.Time) (*Warranty, error)
}
