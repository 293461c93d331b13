package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/api/response"
	"github.com/starshield/warranty/internal/claim"
)

// protocolRetryAfter is the Retry-After hint sent when no unique protocol
// number could be allocated.
const protocolRetryAfter = time.Second

// ClaimsHandler handles claim endpoints.
type ClaimsHandler struct {
	service *claim.Service
	logger  zerolog.Logger
}

// NewClaimsHandler creates a new ClaimsHandler.
func NewClaimsHandler(service *claim.Service, logger zerolog.Logger) *ClaimsHandler {
	return &ClaimsHandler{
		service: service,
		logger:  logger,
	}
}

// CreateClaim handles POST /claims - submit a claim against a device warranty.
func (h *ClaimsHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var input models.CreateClaimRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.CreateClaim(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	location := "/claims/protocol/" + url.PathEscape(result.ProtocolNumber)
	response.Created(w, r, location, result)
}

// GetClaimByProtocol handles GET /claims/protocol/{protocolNumber} - look up a claim.
func (h *ClaimsHandler) GetClaimByProtocol(w http.ResponseWriter, r *http.Request) {
	protocolNumber := chi.URLParam(r, "protocolNumber")
	if protocolNumber == "" {
		response.BadRequest(w, r, "protocolNumber is required", nil)
		return
	}

	result, err := h.service.GetClaimByProtocol(r.Context(), protocolNumber)
	if err != nil {
		if errors.Is(err, claim.ErrClaimNotFound) {
			response.NotFound(w, r, models.CodeClaimNotFound, "Claim not found with the provided protocol number")
			return
		}
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// ListDamageTypes handles GET /claims/damage-types - list selectable damage types.
func (h *ClaimsHandler) ListDamageTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.service.DamageTypes())
}

// UpdateClaimStatus handles PATCH /claims/{claimId}/status - move a claim to a new status.
func (h *ClaimsHandler) UpdateClaimStatus(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimId")
	if claimID == "" {
		response.BadRequest(w, r, "claimId is required", nil)
		return
	}

	var input models.UpdateClaimStatusRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.service.UpdateClaimStatus(r.Context(), claimID, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *ClaimsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ValidationFailed(w, r, validationErr)
	case errors.Is(err, claim.ErrDeviceNotFound):
		response.NotFound(w, r, models.CodeDeviceNotFound, "Device not found")
	case errors.Is(err, claim.ErrClaimNotFound):
		response.NotFound(w, r, models.CodeClaimNotFound, "Claim not found")
	case errors.Is(err, claim.ErrNoActiveWarranty):
		response.BusinessRule(w, r, models.CodeNoActiveWarranty, "No active warranty found for this device")
	case errors.Is(err, claim.ErrWarrantyExpired):
		response.BusinessRule(w, r, models.CodeWarrantyExpired, "Warranty has expired")
	case errors.Is(err, claim.ErrQuotaExceeded):
		response.BusinessRule(w, r, models.CodeClaimQuotaExceeded, "Maximum number of claims reached for this warranty")
	case errors.Is(err, claim.ErrInvalidStatus):
		response.BusinessRule(w, r, models.CodeInvalidStatus, "Unknown claim status")
	case errors.Is(err, claim.ErrProtocolCollision):
		response.Unavailable(w, r, models.CodeProtocolCollision,
			"Could not allocate a protocol number, please retry", protocolRetryAfter)
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("claim request failed")
		response.InternalError(w, r, "", "an unexpected error occurred")
	}
}
