package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/api/handler"
	"github.com/starshield/warranty/internal/api/middleware"
	"github.com/starshield/warranty/internal/api/models"
	"github.com/starshield/warranty/internal/audit"
	"github.com/starshield/warranty/internal/claim"
	"github.com/starshield/warranty/internal/device"
	"github.com/starshield/warranty/internal/notification"
	"github.com/starshield/warranty/internal/warranty"
)

// env wires the handlers to in-memory repositories behind a chi router.
type env struct {
	devices    *device.InMemoryRepository
	warranties warranty.Repository
	claims     claim.Repository
	router     http.Handler
}

type envOption func(*envConfig)

type envConfig struct {
	warranties   warranty.Repository
	claims       claim.Repository
	maxBodyBytes int64
}

func withWarranties(repo warranty.Repository) envOption {
	return func(c *envConfig) { c.warranties = repo }
}

func withClaims(repo claim.Repository) envOption {
	return func(c *envConfig) { c.claims = repo }
}

func withMaxBodyBytes(n int64) envOption {
	return func(c *envConfig) { c.maxBodyBytes = n }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	cfg := envConfig{
		warranties:   warranty.NewInMemoryRepository(),
		claims:       claim.NewInMemoryRepository(),
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zerolog.New(io.Discard)
	e := &env{
		devices:    device.NewInMemoryRepository(),
		warranties: cfg.warranties,
		claims:     cfg.claims,
	}

	mailer, err := notification.NewMailer(notification.MailerConfig{
		Notifier:       notification.NewDisabledNotifier(logger),
		SupportAddress: "suporte@usestarshield.com",
		Logger:         logger,
	})
	require.NoError(t, err)

	recorder := audit.NewRecorder(audit.RecorderConfig{
		Repository: audit.NewInMemoryRepository(),
		Logger:     logger,
	})

	warrantyService := warranty.NewService(warranty.ServiceConfig{
		Devices:    e.devices,
		Warranties: e.warranties,
		Recorder:   recorder,
		Mailer:     mailer,
		Logger:     logger,
	})
	claimService := claim.NewService(claim.ServiceConfig{
		Devices:    e.devices,
		Warranties: e.warranties,
		Claims:     e.claims,
		Recorder:   recorder,
		Mailer:     mailer,
		Logger:     logger,
	})

	warrantyHandler := handler.NewWarrantyHandler(warrantyService, logger)
	claimsHandler := handler.NewClaimsHandler(claimService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxBodyBytes(cfg.maxBodyBytes))
	r.Post("/warranty/register", warrantyHandler.RegisterDevice)
	r.Post("/warranty/validate", warrantyHandler.ValidateWarranty)
	r.Post("/claims", claimsHandler.CreateClaim)
	r.Get("/claims/damage-types", claimsHandler.ListDamageTypes)
	r.Get("/claims/protocol/{protocolNumber}", claimsHandler.GetClaimByProtocol)
	r.Patch("/claims/{claimId}/status", claimsHandler.UpdateClaimStatus)
	e.router = r

	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register registers the default device and returns the result.
func (e *env) register(t *testing.T) models.RegistrationResult {
	t.Helper()

	w := e.do(t, http.MethodPost, "/warranty/register", registerBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result models.RegistrationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
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

func claimBody(deviceID string) map[string]any {
	return map[string]any{
		"deviceId":          deviceID,
		"damageType":        "CRACKED_SCREEN",
		"damageDescription": "Dropped on the sidewalk",
		"incidentDate":      "2024-06-01",
		"customerName":      "Maria Souza",
		"customerCpf":       "12345678909",
		"customerPhone":     "+5511999990000",
		"customerEmail":     "maria@example.com",
	}
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) models.Problem {
	t.Helper()

	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return problem
}

// failingWarranties fails every warranty insert.
type failingWarranties struct {
	*warranty.InMemoryRepository
}

func (f *failingWarranties) Create(context.Context, *warranty.Warranty) error {
	return errors.New("connection reset")
}

// collidingClaims reports a protocol collision on every insert.
type collidingClaims struct {
	*claim.InMemoryRepository
}

func (c *collidingClaims) Create(context.Context, *claim.Claim) error {
	return claim.ErrDuplicateProtocol
}
