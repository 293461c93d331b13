package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/api/response"
	"github.com/starshield/warranty/internal/provider/resilience"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	database  Pinger
	providers *resilience.Registry
}

// OpsHandlerConfig holds configuration for the ops handler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	// Database is nil when the API runs on the in-memory store.
	Database  Pinger
	Providers *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		database:  cfg.Database,
		providers: cfg.Providers,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	database := h.databaseStatus(r.Context())

	health := models.Health{
		Status: database.Status,
		Time:   models.Timestamp(time.Now()),
	}
	if database.Status != models.HealthStatusOK {
		health.Details = map[string]any{"database": *database.Detail}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.databaseStatus(r.Context())},
		Providers:  []models.ProviderStatus{},
	}

	for _, p := range h.providers.Snapshot() {
		status.Providers = append(status.Providers, toProviderStatus(p))
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = worst(status.Status, models.HealthStatusDegraded)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	if h.database == nil {
		detail := "in-memory store"
		return models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK, Detail: &detail}
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.database.Ping(ctx); err != nil {
		detail := "database unreachable"
		return models.SubsystemStatus{Name: "database", Status: models.HealthStatusFail, Detail: &detail}
	}
	return models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
}

func toProviderStatus(p resilience.Health) models.ProviderStatus {
	status := models.ProviderStatus{
		Provider:       p.Name,
		Status:         models.HealthStatusOK,
		Circuit:        p.Condition.String(),
		RecentRequests: p.Requests,
		RecentFailures: p.Failures,
	}
	switch p.Condition {
	case resilience.Down:
		status.Status = models.HealthStatusFail
	case resilience.Probing:
		status.Status = models.HealthStatusDegraded
	}

	if !p.LastSuccess.IsZero() {
		ts := models.Timestamp(p.LastSuccess)
		status.LastSuccessAt = &ts
	}
	if !p.LastFailure.IsZero() {
		ts := models.Timestamp(p.LastFailure)
		status.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		status.Message = &msg
	}
	return status
}

// worst returns the more severe of two health statuses. Email providers are
// best-effort, so a failing provider only degrades the system.
func worst(current, next models.HealthStatus) models.HealthStatus {
	if current == models.HealthStatusFail || next == models.HealthStatusFail {
		return models.HealthStatusFail
	}
	if current == models.HealthStatusDegraded || next == models.HealthStatusDegraded {
		return models.HealthStatusDegraded
	}
	return models.HealthStatusOK
}
