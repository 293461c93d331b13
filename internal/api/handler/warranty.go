package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/api/response"
	"github.com/starshield/warranty/internal/warranty"
)

// WarrantyHandler handles device registration and warranty checks.
type WarrantyHandler struct {
	service *warranty.Service
	logger  zerolog.Logger
}

// NewWarrantyHandler creates a new WarrantyHandler.
func NewWarrantyHandler(service *warranty.Service, logger zerolog.Logger) *WarrantyHandler {
	return &WarrantyHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterDevice handles POST /warranty/register - register a device and activate its warranty.
func (h *WarrantyHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterDeviceRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.RegisterDevice(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, r, "", result)
}

// ValidateWarranty handles POST /warranty/validate - check whether a device is covered.
func (h *WarrantyHandler) ValidateWarranty(w http.ResponseWriter, r *http.Request) {
	var input models.ValidateWarrantyRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.ValidateWarranty(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *WarrantyHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ValidationFailed(w, r, validationErr)
	case errors.Is(err, warranty.ErrDuplicateDevice):
		response.BusinessRule(w, r, models.CodeDuplicateDevice, "Device with this IMEI or fiscal number is already registered")
	case errors.Is(err, warranty.ErrMissingIdentifier):
		response.BusinessRule(w, r, models.CodeMissingIdentifier, "Either IMEI or fiscal number must be provided")
	case errors.Is(err, warranty.ErrRegistrationFailed):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("device registration failed")
		response.InternalError(w, r, models.CodeRegistrationFailed, "Failed to register device")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("warranty request failed")
		response.InternalError(w, r, "", "an unexpected error occurred")
	}
}
