// Package main provides the entrypoint for the StarShield warranty API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/api"
	"github.com/starshield/warranty/internal/api/handler"
	"github.com/starshield/warranty/internal/api/middleware"
	"github.com/starshield/warranty/internal/audit"
	"github.com/starshield/warranty/internal/claim"
	"github.com/starshield/warranty/internal/config"
	"github.com/starshield/warranty/internal/database"
	"github.com/starshield/warranty/internal/device"
	"github.com/starshield/warranty/internal/notification"
	"github.com/starshield/warranty/internal/provider/resilience"
	"github.com/starshield/warranty/internal/telemetry"
	"github.com/starshield/warranty/internal/warranty"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// stores groups the repositories of the selected storage driver.
type stores struct {
	devices    device.Repository
	warranties warranty.Repository
	claims     claim.Repository
	audits     audit.Repository
	// pool is nil for the in-memory driver.
	pool *pgxpool.Pool
}

func main() {
	const serviceName = "starshield-warranty-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting StarShield warranty API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	lifecycleMetrics, err := telemetry.NewLifecycleMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize lifecycle metrics")
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	// Optional audit fan-out
	var publisher audit.Publisher
	if cfg.PubSubProjectID != "" {
		pub, pubErr := audit.NewPubSubPublisher(ctx, audit.PubSubConfig{
			ProjectID: cfg.PubSubProjectID,
			TopicName: cfg.PubSubAuditTopic,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create audit publisher")
		}
		defer func() {
			if closeErr := pub.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close audit publisher")
			}
		}()
		publisher = pub
		log.Info().
			Str("project", cfg.PubSubProjectID).
			Str("topic", cfg.PubSubAuditTopic).
			Msg("audit publisher initialized")
	}

	recorder := audit.NewRecorder(audit.RecorderConfig{
		Repository: st.audits,
		Publisher:  publisher,
		Logger:     log,
	})

	// Email delivery
	registry := resilience.NewRegistry()
	var notifier notification.Notifier
	if cfg.EmailEnabled() {
		clientCfg := resilience.DefaultClientConfig(notification.ProviderName)
		clientCfg.Registry = registry
		clientCfg.Metrics = providerMetrics
		notifier = notification.NewResendNotifier(notification.ResendConfig{
			APIKey:  cfg.ResendAPIKey,
			From:    cfg.ResendFrom,
			BaseURL: cfg.ResendBaseURL,
			Client:  resilience.NewClient(clientCfg),
		})
		log.Info().Str("from", cfg.ResendFrom).Msg("email delivery enabled")
	} else {
		notifier = notification.NewDisabledNotifier(log)
		log.Warn().Msg("RESEND_API_KEY not set - emails will not be delivered")
	}

	mailer, err := notification.NewMailer(notification.MailerConfig{
		Notifier:       notifier,
		SupportAddress: cfg.SupportEmail,
		Metrics:        lifecycleMetrics,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mailer")
	}

	warrantyService := warranty.NewService(warranty.ServiceConfig{
		Devices:    st.devices,
		Warranties: st.warranties,
		Recorder:   recorder,
		Mailer:     mailer,
		Metrics:    lifecycleMetrics,
		Logger:     log,
		Policy: warranty.Policy{
			TermMonths:        cfg.WarrantyTermMonths,
			MaxClaims:         cfg.WarrantyMaxClaims,
			InsuranceProvider: cfg.InsuranceProvider,
		},
	})
	log.Info().
		Int("term_months", cfg.WarrantyTermMonths).
		Int("max_claims", cfg.WarrantyMaxClaims).
		Msg("warranty service initialized")

	claimService := claim.NewService(claim.ServiceConfig{
		Devices:    st.devices,
		Warranties: st.warranties,
		Claims:     st.claims,
		Recorder:   recorder,
		Mailer:     mailer,
		Metrics:    lifecycleMetrics,
		Logger:     log,
	})
	log.Info().Msg("claim service initialized")

	var pinger handler.Pinger
	if st.pool != nil {
		pinger = st.pool
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         httpMetrics,
		WarrantyService: warrantyService,
		ClaimService:    claimService,
		Database:        pinger,
		Providers:       registry,
		CORSOrigins:     cfg.CORSOrigins,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		RequireTLS:      cfg.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// openStores builds the repositories for the configured storage driver,
// connecting and migrating the database when Postgres is selected.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory storage - data is lost on restart")
		return &stores{
			devices:    device.NewInMemoryRepository(),
			warranties: warranty.NewInMemoryRepository(),
			claims:     claim.NewInMemoryRepository(),
			audits:     audit.NewInMemoryRepository(),
		}, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("host", pool.Config().ConnConfig.Host).
		Str("database", pool.Config().ConnConfig.Database).
		Int32("max_conns", pool.Config().MaxConns).
		Msg("database connected")

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("database schema up to date")

	return &stores{
		devices:    device.NewPostgresRepository(pool),
		warranties: warranty.NewPostgresRepository(pool),
		claims:     claim.NewPostgresRepository(pool),
		audits:     audit.NewPostgresRepository(pool),
		pool:       pool,
	}, nil
}
