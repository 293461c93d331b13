// Package models provides request and response models for the StarShield
// warranty API.
package models

import (
	"fmt"
	"strings"
	"time"
)

// CoverageType represents what a warranty covers.
type CoverageType string

const (
	CoverageScreenOnly CoverageType = "SCREEN_ONLY"
	CoverageFullDevice CoverageType = "FULL_DEVICE"
	CoveragePremium    CoverageType = "PREMIUM"
)

// WarrantyStatus represents the lifecycle state of a warranty.
type WarrantyStatus string

const (
	WarrantyStatusActive    WarrantyStatus = "ACTIVE"
	WarrantyStatusExpired   WarrantyStatus = "EXPIRED"
	WarrantyStatusSuspended WarrantyStatus = "SUSPENDED"
	WarrantyStatusCancelled WarrantyStatus = "CANCELLED"
)

// ClaimStatus represents the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusUnderReview ClaimStatus = "UNDER_REVIEW"
	ClaimStatusApproved    ClaimStatus = "APPROVED"
	ClaimStatusRejected    ClaimStatus = "REJECTED"
	ClaimStatusInRepair    ClaimStatus = "IN_REPAIR"
	ClaimStatusCompleted   ClaimStatus = "COMPLETED"
	ClaimStatusCancelled   ClaimStatus = "CANCELLED"
)

// DamageType represents the kind of damage reported in a claim.
type DamageType string

const (
	DamageCrackedScreen   DamageType = "CRACKED_SCREEN"
	DamageBrokenScreen    DamageType = "BROKEN_SCREEN"
	DamageBlackScreen     DamageType = "BLACK_SCREEN"
	DamageTouchNotWorking DamageType = "TOUCH_NOT_WORKING"
	DamageOther           DamageType = "OTHER"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Date is a calendar date. It accepts either YYYY-MM-DD or a full RFC3339
// timestamp and is written back as RFC3339.
type Date time.Time

// MarshalJSON implements json.Marshaler for Date.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return fmt.Errorf("date must be a string, got %s", s)
	}
	s = s[1 : len(s)-1]

	if parsed, err := time.Parse(time.DateOnly, s); err == nil {
		*d = Date(parsed)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD or RFC3339: %w", err)
	}
	*d = Date(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// ValidationError is returned by services when a request fails input
// validation. It never has side effects.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
