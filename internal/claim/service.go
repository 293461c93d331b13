package claim

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
	"github.com/starshield/warranty/internal/warranty"
)

const protocolAttempts = 3

// Service provides claim lifecycle operations.
type Service struct {
	devices    device.Repository
	warranties warranty.Repository
	claims     Repository
	recorder   *audit.Recorder
	mailer     *notification.Mailer
	metrics    *telemetry.LifecycleMetrics
	logger     zerolog.Logger
	now        func() time.Time
}

// ServiceConfig holds configuration for the claim service.
type ServiceConfig struct {
	Devices    device.Repository
	Warranties warranty.Repository
	Claims     Repository
	Recorder   *audit.Recorder
	// Mailer is optional; without it no support notice is sent.
	Mailer  *notification.Mailer
	Metrics *telemetry.LifecycleMetrics
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewService creates a new claim service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		devices:    cfg.Devices,
		warranties: cfg.Warranties,
		claims:     cfg.Claims,
		recorder:   cfg.Recorder,
		mailer:     cfg.Mailer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        now,
	}
}

// CreateClaim files a claim against the active warranty of a device and
// consumes one unit of its quota.
func (s *Service) CreateClaim(ctx context.Context, input *models.CreateClaimRequest) (*models.Claim, error) {
	now := s.now().UTC()
	if fieldErrors := validateCreateInput(input, now); len(fieldErrors) > 0 {
		return nil, &models.ValidationError{Errors: fieldErrors}
	}

	dev, err := s.devices.Get(ctx, input.DeviceID)
	if errors.Is(err, device.ErrDeviceNotFound) || (err == nil && !dev.IsActive) {
		s.rejected(ctx, audit.EntityDevice, input.DeviceID, "Claim rejected: device not found",
			map[string]any{"deviceId": input.DeviceID}, telemetry.OutcomeDeviceNotFound)
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	w, err := s.warranties.GetActiveByDevice(ctx, dev.ID)
	if errors.Is(err, warranty.ErrWarrantyNotFound) {
		s.rejected(ctx, audit.EntityDevice, dev.ID, "Claim rejected: no active warranty",
			map[string]any{"deviceId": dev.ID}, telemetry.OutcomeNoActiveWarranty)
		return nil, ErrNoActiveWarranty
	}
	if err != nil {
		return nil, fmt.Errorf("get warranty: %w", err)
	}

	expired, err := warranty.ExpireIfLapsed(ctx, s.warranties, w, now)
	if err != nil {
		return nil, err
	}
	if expired {
		s.rejected(ctx, audit.EntityWarranty, w.ID, "Claim rejected: warranty expired and marked EXPIRED",
			map[string]any{"deviceId": dev.ID, "endDate": w.EndDate.Format(time.RFC3339)}, telemetry.OutcomeWarrantyExpired)
		return nil, ErrWarrantyExpired
	}

	if w.UsedClaims >= w.MaxClaims {
		s.rejected(ctx, audit.EntityWarranty, w.ID, "Claim rejected: claim quota exceeded",
			quotaMetadata(dev.ID, w), telemetry.OutcomeQuotaExceeded)
		return nil, ErrQuotaExceeded
	}

	c := &Claim{
		ID:                "clm_" + uuid.New().String()[:22],
		DeviceID:          dev.ID,
		WarrantyID:        w.ID,
		Status:            StatusSubmitted,
		DamageType:        DamageType(input.DamageType),
		DamageDescription: input.DamageDescription,
		IncidentDate:      input.IncidentDate.Time(),
		Customer: Customer{
			Name:  input.CustomerName,
			CPF:   input.CustomerCpf,
			Phone: input.CustomerPhone,
			Email: input.CustomerEmail,
		},
		EvidencePhotos: input.EvidencePhotos,
		Documents:      input.Documents,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.createWithProtocol(ctx, c); err != nil {
		if errors.Is(err, ErrProtocolCollision) {
			s.rejected(ctx, audit.EntityWarranty, w.ID, "Claim rejected: no free protocol number",
				map[string]any{"deviceId": dev.ID}, telemetry.OutcomeProtocolCollision)
		}
		return nil, err
	}

	updated, err := s.warranties.IncrementUsedClaims(ctx, w.ID, now)
	if err != nil {
		s.cancel(ctx, c, now)
		if errors.Is(err, ErrQuotaExceeded) {
			meta := quotaMetadata(dev.ID, w)
			meta["protocolNumber"] = c.ProtocolNumber
			s.rejected(ctx, audit.EntityClaim, c.ID, "Claim cancelled: claim quota exceeded", meta, telemetry.OutcomeQuotaExceeded)
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("increment used claims: %w", err)
	}

	emailSent := s.mailer.SendClaimSupport(ctx, notification.ClaimSupportData{
		ProtocolNumber:    c.ProtocolNumber,
		CustomerName:      c.Customer.Name,
		CustomerCpf:       c.Customer.CPF,
		CustomerEmail:     c.Customer.Email,
		CustomerPhone:     c.Customer.Phone,
		Brand:             dev.Brand,
		Model:             dev.Model,
		IMEI:              dev.IMEI,
		FiscalNumber:      dev.FiscalNumber,
		PolicyNumber:      updated.PolicyNumber,
		RemainingClaims:   updated.RemainingClaims(),
		DamageLabel:       c.DamageType.Label(),
		DamageDescription: c.DamageDescription,
		IncidentDate:      c.IncidentDate,
	})

	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionSubmitClaim,
		EntityType:  audit.EntityClaim,
		EntityID:    c.ID,
		Description: "Claim submitted with protocol: " + c.ProtocolNumber,
		Metadata: map[string]any{
			"deviceId":         dev.ID,
			"protocolNumber":   c.ProtocolNumber,
			"supportEmailSent": emailSent,
		},
	})
	s.metrics.RecordClaim(ctx, telemetry.OutcomeSuccess)

	return toAPIClaim(c, dev, updated), nil
}

// rejected audits a claim submission that did not go through.
func (s *Service) rejected(ctx context.Context, entity audit.EntityType, entityID, description string, metadata map[string]any, outcome string) {
	s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionSubmitClaim,
		EntityType:  entity,
		EntityID:    entityID,
		Description: description,
		Metadata:    metadata,
	})
	s.metrics.RecordClaim(ctx, outcome)
}

func quotaMetadata(deviceID string, w *warranty.Warranty) map[string]any {
	return map[string]any{
		"deviceId":   deviceID,
		"usedClaims": w.UsedClaims,
		"maxClaims":  w.MaxClaims,
	}
}

// createWithProtocol stores c under a fresh protocol number, drawing a new
// one when the previous collides.
func (s *Service) createWithProtocol(ctx context.Context, c *Claim) error {
	for range protocolAttempts {
		c.ProtocolNumber = NewProtocolNumber(s.now())
		err := s.claims.Create(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateProtocol) {
			return fmt.Errorf("create claim: %w", err)
		}
	}
	s.logger.Warn().Str("device_id", c.DeviceID).Msg("protocol number collided on every attempt")
	return ErrProtocolCollision
}

// cancel withdraws a claim whose quota increment failed.
func (s *Service) cancel(ctx context.Context, c *Claim, now time.Time) {
	c.Status = StatusCancelled
	c.IsActive = false
	c.UpdatedAt = now
	if err := s.claims.Update(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("claim_id", c.ID).Msg("failed to cancel claim after quota check")
	}
}

// GetClaimByProtocol retrieves an active claim by its protocol number.
func (s *Service) GetClaimByProtocol(ctx context.Context, protocolNumber string) (*models.Claim, error) {
	c, err := s.claims.GetActiveByProtocol(ctx, strings.TrimSpace(protocolNumber))
	if err != nil {
		return nil, err
	}

	dev, err := s.devices.Get(ctx, c.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	w, err := s.warranties.Get(ctx, c.WarrantyID)
	if err != nil {
		return nil, fmt.Errorf("get warranty: %w", err)
	}

	return toAPIClaim(c, dev, w), nil
}

// UpdateClaimStatus moves a claim to a new status, optionally replacing its
// admin notes.
func (s *Service) UpdateClaimStatus(ctx context.Context, claimID string, input *models.UpdateClaimStatusRequest) error {
	status := Status(input.Status)
	if !status.Valid() {
		return ErrInvalidStatus
	}

	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return ErrClaimNotFound
	}

	now := s.now().UTC()
	oldStatus := c.Status
	c.Status = status
	if input.AdminNotes != nil {
		notes := *input.AdminNotes
		c.AdminNotes = &notes
	}
	if status == StatusCompleted {
		c.CompletionDate = &now
	}
	c.UpdatedAt = now

	if err := s.claims.Update(ctx, c); err != nil {
		return fmt.Errorf("update claim: %w", err)
	}

	metadata := map[string]any{
		"oldStatus": string(oldStatus),
		"newStatus": string(status),
	}
	if input.AdminNotes != nil {
		metadata["adminNotes"] = *input.AdminNotes
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:      statusAction(status),
		EntityType:  audit.EntityClaim,
		EntityID:    c.ID,
		Description: fmt.Sprintf("Claim status updated from %s to %s", oldStatus, status),
		Metadata:    metadata,
	})

	return nil
}

// DamageTypes returns the selectable damage types with their labels.
func (s *Service) DamageTypes() []models.DamageTypeOption {
	options := make([]models.DamageTypeOption, 0, len(damageLabels))
	for _, l := range damageLabels {
		options = append(options, models.DamageTypeOption{
			Value: models.DamageType(l.value),
			Label: l.label,
		})
	}
	return options
}

func statusAction(status Status) audit.Action {
	switch status {
	case StatusApproved:
		return audit.ActionApproveClaim
	case StatusRejected:
		return audit.ActionRejectClaim
	default:
		return audit.ActionUpdate
	}
}

// validateCreateInput validates the claim submission input.
func validateCreateInput(input *models.CreateClaimRequest, now time.Time) []models.FieldError {
	var errs []models.FieldError

	required := []struct {
		field string
		value string
	}{
		{"deviceId", input.DeviceID},
		{"damageDescription", input.DamageDescription},
		{"customerName", input.CustomerName},
		{"customerCpf", input.CustomerCpf},
		{"customerPhone", input.CustomerPhone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, models.FieldError{Field: r.field, Message: "is required", Code: "REQUIRED"})
		}
	}

	if input.DamageType == "" {
		errs = append(errs, models.FieldError{Field: "damageType", Message: "is required", Code: "REQUIRED"})
	} else if !DamageType(input.DamageType).Valid() {
		errs = append(errs, models.FieldError{Field: "damageType", Message: "is not a supported damage type", Code: "INVALID_VALUE"})
	}

	if input.CustomerEmail == "" {
		errs = append(errs, models.FieldError{Field: "customerEmail", Message: "is required", Code: "REQUIRED"})
	} else if !govalidator.IsEmail(input.CustomerEmail) {
		errs = append(errs, models.FieldError{Field: "customerEmail", Message: "must be a valid email address", Code: "INVALID_FORMAT"})
	}

	if input.IncidentDate == nil || input.IncidentDate.Time().IsZero() {
		errs = append(errs, models.FieldError{Field: "incidentDate", Message: "is required", Code: "REQUIRED"})
	} else if input.IncidentDate.Time().After(now) {
		errs = append(errs, models.FieldError{Field: "incidentDate", Message: "must not be in the future", Code: "OUT_OF_RANGE"})
	}

	for i, p := range input.EvidencePhotos {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, models.FieldError{Field: fmt.Sprintf("evidencePhotos[%d]", i), Message: "must not be empty", Code: "REQUIRED"})
		}
	}
	for i, d := range input.Documents {
		if strings.TrimSpace(d) == "" {
			errs = append(errs, models.FieldError{Field: fmt.Sprintf("documents[%d]", i), Message: "must not be empty", Code: "REQUIRED"})
		}
	}

	return errs
}

func toAPIClaim(c *Claim, d *device.Device, w *warranty.Warranty) *models.Claim {
	return &models.Claim{
		ID:                c.ID,
		ProtocolNumber:    c.ProtocolNumber,
		Status:            models.ClaimStatus(c.Status),
		DamageType:        models.DamageType(c.DamageType),
		DamageDescription: c.DamageDescription,
		IncidentDate:      models.Timestamp(c.IncidentDate),
		CustomerName:      c.Customer.Name,
		CustomerCpf:       c.Customer.CPF,
		CustomerPhone:     c.Customer.Phone,
		CustomerEmail:     c.Customer.Email,
		CreatedAt:         models.Timestamp(c.CreatedAt),
		Device: models.ClaimDevice{
			IMEI:  d.IMEI,
			Model: d.Model,
			Brand: d.Brand,
		},
		Warranty: models.ClaimWarranty{
			PolicyNumber:    w.PolicyNumber,
			RemainingClaims: w.RemainingClaims(),
		},
	}
}
