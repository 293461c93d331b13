package device

import (
	"context"
	"slices"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	devices map[string]*Device // keyed by device ID
	order   []string           // insertion order, oldest first
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		devices: make(map[string]*Device),
	}
}

// Get retrieves a device by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return copyDevice(device), nil
}

// FindActiveByIdentifier retrieves the active device holding either identifier.
func (r *InMemoryRepository) FindActiveByIdentifier(_ context.Context, imei, fiscalNumber string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d := r.findActiveByIdentifier(imei, fiscalNumber); d != nil {
		return copyDevice(d), nil
	}
	return nil, ErrDeviceNotFound
}

// FindActive retrieves the active device selected by a lookup.
func (r *InMemoryRepository) FindActive(_ context.Context, lookup Lookup) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if d := r.devices[id]; lookup.matches(d) {
			return copyDevice(d), nil
		}
	}
	return nil, ErrDeviceNotFound
}

// Create creates a new device.
func (r *InMemoryRepository) Create(_ context.Context, device *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device.IsActive && r.findActiveByIdentifier(device.IMEI, device.FiscalNumber) != nil {
		return ErrDuplicateDevice
	}

	r.devices[device.ID] = copyDevice(device)
	r.order = append(r.order, device.ID)
	return nil
}

// Deactivate soft-deletes a device.
func (r *InMemoryRepository) Deactivate(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	device.IsActive = false
	device.UpdatedAt = at
	return nil
}

// findActiveByIdentifier must be called with the lock held.
func (r *InMemoryRepository) findActiveByIdentifier(imei, fiscalNumber string) *Device {
	for _, id := range r.order {
		d := r.devices[id]
		if !d.IsActive {
			continue
		}
		if (imei != "" && d.IMEI == imei) || (fiscalNumber != "" && d.FiscalNumber == fiscalNumber) {
			return d
		}
	}
	return nil
}

// copyDevice creates a deep copy of a device.
func copyDevice(d *Device) *Device {
	if d == nil {
		return nil
	}

	deviceCopy := *d
	deviceCopy.Photos = slices.Clone(d.Photos)
	return &deviceCopy
}

var _ Repository = (*InMemoryRepository)(nil)
