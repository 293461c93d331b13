package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/api"
	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/audit"
	"github.com/starshield/warranty/internal/claim"
	"github.com/starshield/warranty/internal/device"
	"github.com/starshield/warranty/internal/notification"
	"github.com/starshield/warranty/internal/provider/resilience"
	"github.com/starshield/warranty/internal/warranty"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zerolog.New(io.Discard)
	devices := device.NewInMemoryRepository()
	warranties := warranty.NewInMemoryRepository()
	recorder := audit.NewRecorder(audit.RecorderConfig{
		Repository: audit.NewInMemoryRepository(),
		Logger:     logger,
	})
	mailer, err := notification.NewMailer(notification.MailerConfig{
		Notifier: notification.NewDisabledNotifier(logger),
		Logger:   logger,
	})
	require.NoError(t, err)

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig(notification.ProviderName)
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2025-01-01T00:00:00Z",
		Logger:    logger,
		WarrantyService: warranty.NewService(warranty.ServiceConfig{
			Devices:    devices,
			Warranties: warranties,
			Recorder:   recorder,
			Mailer:     mailer,
			Logger:     logger,
		}),
		ClaimService: claim.NewService(claim.ServiceConfig{
			Devices:    devices,
			Warranties: warranties,
			Claims:     claim.NewInMemoryRepository(),
			Recorder:   recorder,
			Mailer:     mailer,
			Logger:     logger,
		}),
		Providers:    registry,
		CORSOrigins:  []string{"https://app.usestarshield.com"},
		MaxBodyBytes: 4096,
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerBody() map[string]any {
	return map[string]any{
		"imei":         "356938035643809",
		"fiscalNumber": "NF-000123",
		"model":        "Galaxy S23",
		"brand":        "Samsung",
		"purchaseDate": "2024-02-01",
		"ownerCpfCnpj": "12345678909",
		"ownerName":    "Maria Souza",
		"ownerEmail":   "maria@example.com",
		"ownerPhone":   "+5511999990000",
		"photos":       []string{"front.jpg", "back.jpg"},
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, notification.ProviderName, status.Providers[0].Provider)
}

func TestRouter_RegisterValidateAndClaim(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/warranty/register", registerBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered models.RegistrationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))

	w = postJSON(t, router, "/warranty/validate", map[string]any{
		"imei":         "356938035643809",
		"model":        "Galaxy S23",
		"ownerCpfCnpj": "12345678909",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var validation models.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validation))
	assert.True(t, validation.IsValid)

	w = postJSON(t, router, "/claims", map[string]any{
		"deviceId":          registered.Device.ID,
		"damageType":        "BROKEN_SCREEN",
		"damageDescription": "Screen shattered after a fall",
		"incidentDate":      "2024-06-01",
		"customerName":      "Maria Souza",
		"customerCpf":       "12345678909",
		"customerPhone":     "+5511999990000",
		"customerEmail":     "maria@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.NotEmpty(t, location)

	req := httptest.NewRequest(http.MethodGet, location, http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var found models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, models.DamageBrokenScreen, found.DamageType)
	assert.Equal(t, 1, found.Warranty.RemainingClaims)
}

func TestRouter_DamageTypes(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/claims/damage-types", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var options []models.DamageTypeOption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	assert.Len(t, options, 5)
}

func TestRouter_UnsupportedMediaType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/warranty/register", bytes.NewBufferString("imei=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t)

	body := registerBody()
	body["photos"] = []string{string(bytes.Repeat([]byte("a"), 5000)), "back.jpg"}

	w := postJSON(t, router, "/warranty/register", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/claims", http.NoBody)
	req.Header.Set("Origin", "https://app.usestarshield.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.usestarshield.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
