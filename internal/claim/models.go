// Package claim files and tracks repair claims against device warranties.
package claim

import (
	"errors"
	"time"

	"github.com/starshield/warranty/internal/warranty"
)

// Repository and service errors.
var (
	ErrClaimNotFound     = errors.New("claim not found")
	ErrDuplicateProtocol = errors.New("protocol number already exists")
	ErrProtocolCollision = errors.New("could not allocate a unique protocol number")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrNoActiveWarranty  = errors.New("no active warranty found for this device")
	ErrWarrantyExpired   = errors.New("warranty has expired")
	ErrInvalidStatus     = errors.New("invalid claim status")

	// ErrQuotaExceeded is returned when the warranty has no claims left.
	ErrQuotaExceeded = warranty.ErrQuotaExceeded
)

// Status represents the lifecycle state of a claim.
type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusInRepair    Status = "IN_REPAIR"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected,
		StatusInRepair, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DamageType represents the kind of damage reported in a claim.
type DamageType string

const (
	DamageCrackedScreen   DamageType = "CRACKED_SCREEN"
	DamageBrokenScreen    DamageType = "BROKEN_SCREEN"
	DamageBlackScreen     DamageType = "BLACK_SCREEN"
	DamageTouchNotWorking DamageType = "TOUCH_NOT_WORKING"
	DamageOther           DamageType = "OTHER"
)

// damageLabels lists the damage types in display order with their pt-BR labels.
var damageLabels = []struct {
	value DamageType
	label string
}{
	{DamageCrackedScreen, "Tela Rachada"},
	{DamageBrokenScreen, "Tela Quebrada"},
	{DamageBlackScreen, "Tela Preta/Não Liga"},
	{DamageTouchNotWorking, "Touch Não Funciona"},
	{DamageOther, "Outros"},
}

// Valid reports whether d is a known damage type.
func (d DamageType) Valid() bool {
	return d.Label() != ""
}

// Label returns the display label of d, or "" when d is unknown.
func (d DamageType) Label() string {
	for _, l := range damageLabels {
		if l.value == d {
			return l.label
		}
	}
	return ""
}

// Customer is the contact snapshot taken when the claim is filed.
type Customer struct {
	Name  string
	CPF   string
	Phone string
	Email string
}

// Claim represents a repair request filed against a warranty.
type Claim struct {
	ID                string
	ProtocolNumber    string
	DeviceID          string
	WarrantyID        string
	Status            Status
	DamageType        DamageType
	DamageDescription string
	IncidentDate      time.Time
	Customer          Customer
	EvidencePhotos    []string
	Documents         []string

	// Repair workflow fields, set by back-office tooling.
	RepairShop      *string
	EstimatedCost   *float64
	ActualCost      *float64
	RepairDate      *time.Time
	RejectionReason *string

	AdminNotes     *string
	CompletionDate *time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
