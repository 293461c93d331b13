package device

import (
	"context"
	"time"
)

// Repository defines the interface for device persistence.
type Repository interface {
	// Get retrieves a device by ID, active or not.
	Get(ctx context.Context, id string) (*Device, error)

	// FindActiveByIdentifier retrieves the active device holding either the
	// IMEI or the fiscal number.
	FindActiveByIdentifier(ctx context.Context, imei, fiscalNumber string) (*Device, error)

	// FindActive retrieves the active device selected by a lookup.
	FindActive(ctx context.Context, lookup Lookup) (*Device, error)

	// Create creates a new device. It returns ErrDuplicateDevice when an
	// active device already holds the IMEI or fiscal number.
	Create(ctx context.Context, device *Device) error

	// Deactivate soft-deletes a device, releasing its identifiers.
	Deactivate(ctx context.Context, id string, at time.Time) error
}
