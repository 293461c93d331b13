// Package api provides the HTTP API for the StarShield warranty service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/api/handler"
	"github.com/starshield/warranty/internal/api/middleware"
	"github.com/starshield/warranty/internal/claim"
	"github.com/starshield/warranty/internal/provider/resilience"
	"github.com/starshield/warranty/internal/warranty"
)

const defaultMaxBodyBytes = 50 << 20

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	WarrantyService *warranty.Service
	ClaimService    *claim.Service
	// Database is pinged by the readiness check. Nil means in-memory storage.
	Database    handler.Pinger
	Providers   *resilience.Registry
	CORSOrigins []string
	// MaxBodyBytes caps request bodies. Default: 50 MiB
	MaxBodyBytes int64
	RequireTLS   bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "starshield-warranty-api"
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ClientInfo) // Audit client details
	r.Use(middleware.MaxBodyBytes(maxBody))
	r.Use(middleware.RequireJSON)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Providers: cfg.Providers,
	})
	warrantyHandler := handler.NewWarrantyHandler(cfg.WarrantyService, cfg.Logger)
	claimsHandler := handler.NewClaimsHandler(cfg.ClaimService, cfg.Logger)

	registrationRateLimit := middleware.RateLimitByIP(middleware.RegistrationRateLimit)
	submissionRateLimit := middleware.RateLimitByIP(middleware.SubmissionRateLimit)
	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	r.Route("/warranty", func(r chi.Router) {
		r.With(registrationRateLimit).Post("/register", warrantyHandler.RegisterDevice)
		r.With(submissionRateLimit).Post("/validate", warrantyHandler.ValidateWarranty)
	})

	r.Route("/claims", func(r chi.Router) {
		r.With(submissionRateLimit).Post("/", claimsHandler.CreateClaim)

		r.Group(func(r chi.Router) {
			r.Use(lookupRateLimit)
			r.Get("/damage-types", claimsHandler.ListDamageTypes)
			r.Get("/protocol/{protocolNumber}", claimsHandler.GetClaimByProtocol)
			r.Patch("/{claimId}/status", claimsHandler.UpdateClaimStatus)
		})
	})

	return r
}
