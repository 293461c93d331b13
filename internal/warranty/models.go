// Package warranty registers devices, activates their warranties and answers
// whether a device is currently covered.
package warranty

import (
	"errors"
	"time"

	"github.com/starshield/warranty/internal/device"
)

// Repository and service errors.
var (
	ErrWarrantyNotFound      = errors.New("warranty not found")
	ErrQuotaExceeded         = errors.New("maximum number of claims reached for this warranty")
	ErrDuplicatePolicyNumber = errors.New("policy number already exists")
	ErrMissingIdentifier     = errors.New("either IMEI or fiscal number must be provided")
	ErrRegistrationFailed    = errors.New("failed to register device")

	// ErrDuplicateDevice is returned when an active device already holds the
	// IMEI or fiscal number being registered.
	ErrDuplicateDevice = device.ErrDuplicateDevice
)

// CoverageType represents what a warranty covers.
type CoverageType string

const (
	CoverageScreenOnly CoverageType = "SCREEN_ONLY"
	CoverageFullDevice CoverageType = "FULL_DEVICE"
	CoveragePremium    CoverageType = "PREMIUM"
)

// Status represents the lifecycle state of a warranty.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
)

// Warranty represents the coverage attached to a device.
type Warranty struct {
	ID                string
	DeviceID          string
	CoverageType      CoverageType
	StartDate         time.Time
	EndDate           time.Time
	Status            Status
	MaxClaims         int
	UsedClaims        int
	PolicyNumber      string
	InsuranceProvider string
	Notes             string
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RemainingClaims returns how many more claims the warranty accepts.
func (w *Warranty) RemainingClaims() int {
	return max(w.MaxClaims-w.UsedClaims, 0)
}

// HasLapsed reports whether an active warranty is past its end date.
func (w *Warranty) HasLapsed(now time.Time) bool {
	return w.Status == StatusActive && w.EndDate.Before(now)
}

// Policy holds the terms applied to newly activated warranties.
type Policy struct {
	// TermMonths is the coverage length. Default: 12
	TermMonths int
	// MaxClaims is the claim quota. Default: 2
	MaxClaims         int
	CoverageType      CoverageType
	InsuranceProvider string
}

// DefaultPolicy returns the standard one-year screen warranty.
func DefaultPolicy() Policy {
	return Policy{
		TermMonths:   12,
		MaxClaims:    2,
		CoverageType: CoverageScreenOnly,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.TermMonths <= 0 {
		p.TermMonths = def.TermMonths
	}
	if p.MaxClaims <= 0 {
		p.MaxClaims = def.MaxClaims
	}
	if p.CoverageType == "" {
		p.CoverageType = def.CoverageType
	}
	return p
}
