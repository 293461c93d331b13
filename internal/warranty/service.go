package warranty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/audit"
	"github.com/starshield/warranty/internal/device"
	"github.com/starshield/warranty/internal/notification"
	"github.com/starshield/warranty/internal/telemetry"
)

// Result messages returned to clients.
const (
	MessageRegistered       = "Device registered successfully and warranty activated"
	MessageDeviceNotFound   = "Device not found or does not match the provided information"
	MessageNoActiveWarranty = "No active warranty found for this device"
	MessageExpired          = "Warranty has expired"
	MessageValid            = "Warranty is active and valid"
)

const policyNumberAttempts = 3

// Service provides warranty lifecycle operations.
type Service struct {
	devices    device.Repository
	warranties Repository
	recorder   *audit.Recorder
	mailer     *notification.Mailer
	metrics    *telemetry.LifecycleMetrics
	logger     zerolog.Logger
	policy     Policy
	now        func() time.Time
}

// ServiceConfig holds configuration for the warranty service.
type ServiceConfig struct {
	Devices    device.Repository
	Warranties Repository
	Recorder   *audit.Recorder
	// Mailer is optional; without it no registration email is sent.
	Mailer  *notification.Mailer
	Metrics *telemetry.LifecycleMetrics
	Logger  zerolog.Logger
	Policy  Policy
	Now     func() time.Time
}

// NewService creates a new warranty service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		devices:    cfg.Devices,
		warranties: cfg.Warranties,
		recorder:   cfg.Recorder,
		mailer:     cfg.Mailer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		policy:     cfg.Policy.withDefaults(),
		now:        now,
	}
}

// RegisterDevice records a new device and activates its warranty.
func (s *Service) RegisterDevice(ctx context.Context, input *models.RegisterDeviceRequest) (*models.RegistrationResult, error) {
	now := s.now().UTC()
	if fieldErrors := validateRegisterInput(input, now); len(fieldErrors) > 0 {
		return nil, &models.ValidationError{Errors: fieldErrors}
	}

	existing, err := s.devices.FindActiveByIdentifier(ctx, input.IMEI, input.FiscalNumber)
	switch {
	case err == nil && existing != nil:
		return nil, s.registrationFailed(ctx, input, ErrDuplicateDevice)
	case err != nil && !errors.Is(err, device.ErrDeviceNotFound):
		return nil, s.registrationFailed(ctx, input, err)
	}

	dev := &device.Device{
		ID:           "dev_" + uuid.New().String()[:22],
		IMEI:         input.IMEI,
		FiscalNumber: input.FiscalNumber,
		Model:        input.Model,
		Brand:        input.Brand,
		PurchaseDate: input.PurchaseDate.Time(),
		Owner: device.Owner{
			TaxID: input.OwnerCpfCnpj,
			Name:  input.OwnerName,
			Email: input.OwnerEmail,
			Phone: input.OwnerPhone,
		},
		Photos:    input.Photos,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.devices.Create(ctx, dev); err != nil {
		return nil, s.registrationFailed(ctx, input, err)
	}

	w, err := s.activateWarranty(ctx, dev.ID, now)
	if err != nil {
		if derr := s.devices.Deactivate(ctx, dev.ID, now); derr != nil {
			s.logger.Error().Err(derr).Str("device_id", dev.ID).Msg("failed to deactivate device after warranty failure")
		}
		return nil, s.registrationFailed(ctx, input, err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  audit.EntityDevice,
		EntityID:    dev.ID,
		Description: "Device registered successfully: " + dev.IMEI,
		Metadata: map[string]any{
			"deviceId":     dev.ID,
			"warrantyId":   w.ID,
			"policyNumber": w.PolicyNumber,
		},
	})
	s.metrics.RecordRegistration(ctx, telemetry.OutcomeSuccess)

	emailSent := s.mailer.SendDeviceRegistered(ctx, notification.DeviceRegisteredData{
		OwnerName:    dev.Owner.Name,
		OwnerEmail:   dev.Owner.Email,
		Brand:        dev.Brand,
		Model:        dev.Model,
		IMEI:         dev.IMEI,
		PolicyNumber: w.PolicyNumber,
		RegisteredAt: now,
		ValidUntil:   w.EndDate,
	})

	return &models.RegistrationResult{
		Success: true,
		Device:  toAPIDeviceSummary(dev),
		Warranty: &models.RegisteredWarranty{
			ID:           w.ID,
			PolicyNumber: w.PolicyNumber,
			StartDate:    models.Timestamp(w.StartDate),
			EndDate:      models.Timestamp(w.EndDate),
		},
		Message:   MessageRegistered,
		EmailSent: emailSent,
	}, nil
}

// activateWarranty creates the warranty for a new device, drawing a fresh
// policy number when the previous one collides.
func (s *Service) activateWarranty(ctx context.Context, deviceID string, now time.Time) (*Warranty, error) {
	w := &Warranty{
		ID:                "war_" + uuid.New().String()[:22],
		DeviceID:          deviceID,
		CoverageType:      s.policy.CoverageType,
		StartDate:         now,
		EndDate:           now.AddDate(0, s.policy.TermMonths, 0),
		Status:            StatusActive,
		MaxClaims:         s.policy.MaxClaims,
		UsedClaims:        0,
		InsuranceProvider: s.policy.InsuranceProvider,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var err error
	for range policyNumberAttempts {
		w.PolicyNumber = NewPolicyNumber(s.now())
		err = s.warranties.Create(ctx, w)
		if !errors.Is(err, ErrDuplicatePolicyNumber) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create warranty: %w", err)
	}
	return w, nil
}

// registrationFailed audits a failed registration and returns the error to
// hand back to the caller.
func (s *Service) registrationFailed(ctx context.Context, input *models.RegisterDeviceRequest, cause error) error {
	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionCreate,
		EntityType:  audit.EntityDevice,
		Description: "Failed to register device: " + cause.Error(),
		Metadata: map[string]any{
			"imei":         input.IMEI,
			"fiscalNumber": input.FiscalNumber,
			"model":        input.Model,
			"brand":        input.Brand,
			"ownerCpfCnpj": input.OwnerCpfCnpj,
			"photoCount":   len(input.Photos),
		},
	})

	if errors.Is(cause, ErrDuplicateDevice) {
		s.metrics.RecordRegistration(ctx, telemetry.OutcomeDuplicate)
		return ErrDuplicateDevice
	}

	s.logger.Error().Err(cause).Str("imei", input.IMEI).Msg("device registration failed")
	s.metrics.RecordRegistration(ctx, telemetry.OutcomeFailure)
	return fmt.Errorf("%w: %w", ErrRegistrationFailed, cause)
}

// ValidateWarranty reports whether the identified device is covered, expiring
// its warranty when the end date has passed.
func (s *Service) ValidateWarranty(ctx context.Context, input *models.ValidateWarrantyRequest) (*models.ValidationResult, error) {
	if input.IMEI == "" && input.FiscalNumber == "" {
		return nil, ErrMissingIdentifier
	}
	if fieldErrors := validateValidateInput(input); len(fieldErrors) > 0 {
		return nil, &models.ValidationError{Errors: fieldErrors}
	}

	now := s.now().UTC()

	dev, err := s.devices.FindActive(ctx, device.Lookup{
		IMEI:         input.IMEI,
		FiscalNumber: input.FiscalNumber,
		Model:        input.Model,
		OwnerTaxID:   input.OwnerCpfCnpj,
	})
	if errors.Is(err, device.ErrDeviceNotFound) {
		identifier := input.IMEI
		if identifier == "" {
			identifier = input.FiscalNumber
		}
		s.recorder.Record(ctx, audit.Entry{
			Action:      audit.ActionValidateWarranty,
			EntityType:  audit.EntityDevice,
			Description: "Device not found for validation: " + identifier,
			Metadata: map[string]any{
				"imei":         input.IMEI,
				"fiscalNumber": input.FiscalNumber,
				"model":        input.Model,
				"ownerCpfCnpj": input.OwnerCpfCnpj,
			},
		})
		s.metrics.RecordValidation(ctx, telemetry.OutcomeDeviceNotFound)
		return &models.ValidationResult{IsValid: false, Message: MessageDeviceNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find device: %w", err)
	}

	w, err := s.warranties.GetActiveByDevice(ctx, dev.ID)
	if errors.Is(err, ErrWarrantyNotFound) {
		return s.noActiveWarranty(ctx, dev)
	}
	if err != nil {
		return nil, fmt.Errorf("find warranty: %w", err)
	}

	expired, err := ExpireIfLapsed(ctx, s.warranties, w, now)
	if err != nil {
		return nil, err
	}
	if expired {
		return s.expired(ctx, dev, w, "Warranty expired during validation"), nil
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionValidateWarranty,
		EntityType:  audit.EntityWarranty,
		EntityID:    w.ID,
		Description: "Warranty validation successful",
		Metadata:    map[string]any{"deviceId": dev.ID, "remainingClaims": w.RemainingClaims()},
	})
	s.metrics.RecordValidation(ctx, telemetry.OutcomeValid)

	return &models.ValidationResult{
		IsValid:  true,
		Device:   toAPIDeviceSummary(dev),
		Warranty: toAPIWarrantyDetails(w),
		Message:  MessageValid,
	}, nil
}

// noActiveWarranty answers a validation for a device without an ACTIVE
// warranty. A warranty that already expired keeps reporting as expired.
func (s *Service) noActiveWarranty(ctx context.Context, dev *device.Device) (*models.ValidationResult, error) {
	latest, err := s.warranties.GetLatestByDevice(ctx, dev.ID)
	if err != nil && !errors.Is(err, ErrWarrantyNotFound) {
		return nil, fmt.Errorf("find latest warranty: %w", err)
	}
	if latest != nil && latest.Status == StatusExpired {
		return s.expired(ctx, dev, latest, "Warranty already expired"), nil
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionValidateWarranty,
		EntityType:  audit.EntityWarranty,
		EntityID:    dev.ID,
		Description: "No active warranty found for device",
		Metadata:    map[string]any{"deviceId": dev.ID},
	})
	s.metrics.RecordValidation(ctx, telemetry.OutcomeNoActiveWarranty)

	return &models.ValidationResult{
		IsValid: false,
		Device:  toAPIDeviceSummary(dev),
		Message: MessageNoActiveWarranty,
	}, nil
}

func (s *Service) expired(ctx context.Context, dev *device.Device, w *Warranty, description string) *models.ValidationResult {
	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionValidateWarranty,
		EntityType:  audit.EntityWarranty,
		EntityID:    w.ID,
		Description: description,
		Metadata:    map[string]any{"deviceId": dev.ID, "endDate": w.EndDate.Format(time.RFC3339)},
	})
	s.metrics.RecordValidation(ctx, telemetry.OutcomeWarrantyExpired)

	return &models.ValidationResult{
		IsValid:  false,
		Device:   toAPIDeviceSummary(dev),
		Warranty: toAPIWarrantyDetails(w),
		Message:  MessageExpired,
	}
}

// validateRegisterInput validates the registration input.
func validateRegisterInput(input *models.RegisterDeviceRequest, now time.Time) []models.FieldError {
	var errs []models.FieldError

	required := []struct {
		field string
		value string
	}{
		{"imei", input.IMEI},
		{"fiscalNumber", input.FiscalNumber},
		{"model", input.Model},
		{"brand", input.Brand},
		{"ownerCpfCnpj", input.OwnerCpfCnpj},
		{"ownerName", input.OwnerName},
		{"ownerPhone", input.OwnerPhone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, models.FieldError{Field: r.field, Message: "is required", Code: "REQUIRED"})
		}
	}

	if input.OwnerEmail == "" {
		errs = append(errs, models.FieldError{Field: "ownerEmail", Message: "is required", Code: "REQUIRED"})
	} else if !govalidator.IsEmail(input.OwnerEmail) {
		errs = append(errs, models.FieldError{Field: "ownerEmail", Message: "must be a valid email address", Code: "INVALID_FORMAT"})
	}

	if input.PurchaseDate == nil || input.PurchaseDate.Time().IsZero() {
		errs = append(errs, models.FieldError{Field: "purchaseDate", Message: "is required", Code: "REQUIRED"})
	} else if input.PurchaseDate.Time().After(now) {
		errs = append(errs, models.FieldError{Field: "purchaseDate", Message: "must not be in the future", Code: "OUT_OF_RANGE"})
	}

	switch n := len(input.Photos); {
	case n < device.MinPhotos:
		errs = append(errs, models.FieldError{Field: "photos", Message: "at least 2 photos are required", Code: "OUT_OF_RANGE"})
	case n > device.MaxPhotos:
		errs = append(errs, models.FieldError{Field: "photos", Message: "maximum 6 photos are allowed", Code: "OUT_OF_RANGE"})
	}
	for i, p := range input.Photos {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, models.FieldError{Field: fmt.Sprintf("photos[%d]", i), Message: "must not be empty", Code: "REQUIRED"})
		}
	}

	return errs
}

// validateValidateInput validates the warranty check input.
func validateValidateInput(input *models.ValidateWarrantyRequest) []models.FieldError {
	var errs []models.FieldError
	if strings.TrimSpace(input.Model) == "" {
		errs = append(errs, models.FieldError{Field: "model", Message: "is required", Code: "REQUIRED"})
	}
	if strings.TrimSpace(input.OwnerCpfCnpj) == "" {
		errs = append(errs, models.FieldError{Field: "ownerCpfCnpj", Message: "is required", Code: "REQUIRED"})
	}
	return errs
}

func toAPIDeviceSummary(d *device.Device) *models.DeviceSummary {
	return &models.DeviceSummary{
		ID:    d.ID,
		IMEI:  d.IMEI,
		Model: d.Model,
		Brand: d.Brand,
	}
}

func toAPIWarrantyDetails(w *Warranty) *models.WarrantyDetails {
	return &models.WarrantyDetails{
		ID:              w.ID,
		Status:          models.WarrantyStatus(w.Status),
		StartDate:       models.Timestamp(w.StartDate),
		EndDate:         models.Timestamp(w.EndDate),
		MaxClaims:       w.MaxClaims,
		UsedClaims:      w.UsedClaims,
		RemainingClaims: w.RemainingClaims(),
		PolicyNumber:    w.PolicyNumber,
		CoverageType:    models.CoverageType(w.CoverageType),
	}
}
