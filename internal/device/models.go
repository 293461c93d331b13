// Package device stores the handsets covered by warranties.
package device

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDuplicateDevice = errors.New("device with this IMEI or fiscal number is already registered")
)

// Photo count limits for a registration.
const (
	MinPhotos = 2
	MaxPhotos = 6
)

// Owner identifies the customer who owns a device.
type Owner struct {
	// TaxID is the owner's CPF or CNPJ.
	TaxID string
	Name  string
	Email string
	Phone string
}

// Device represents a registered handset.
type Device struct {
	ID           string
	IMEI         string
	FiscalNumber string
	Model        string
	Brand        string
	PurchaseDate time.Time
	Owner        Owner
	// Photos are opaque references supplied by the client.
	Photos    []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lookup selects an active device for warranty validation. IMEI takes
// precedence over FiscalNumber when both are set.
type Lookup struct {
	IMEI         string
	FiscalNumber string
	Model        string
	OwnerTaxID   string
}

func (l Lookup) matches(d *Device) bool {
	if !d.IsActive || d.Model != l.Model || d.Owner.TaxID != l.OwnerTaxID {
		return false
	}
	if l.IMEI != "" {
		return d.IMEI == l.IMEI
	}
	return l.FiscalNumber != "" && d.FiscalNumber == l.FiscalNumber
}
