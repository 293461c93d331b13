// Package config loads the API configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/starshield/warranty/internal/database"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"https://garantias.usestarshield.com",
}

// Config holds the API configuration.
type Config struct {
	// Server
	Port         string
	Environment  string
	MaxBodyBytes int64
	RequireTLS   bool
	CORSOrigins  []string

	// Telemetry
	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	// Storage
	StoreDriver string
	Database    database.Config

	// Email
	ResendAPIKey  string
	ResendFrom    string
	ResendBaseURL string
	SupportEmail  string

	// Warranty policy
	WarrantyTermMonths int
	WarrantyMaxClaims  int
	InsuranceProvider  string

	// Audit fan-out; disabled when PubSubProjectID is empty.
	PubSubProjectID  string
	PubSubAuditTopic string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Environment:  getEnvOrDefault("APP_ENV", "development"),
		MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 50<<20)),
		RequireTLS:   getEnvAsBool("REQUIRE_TLS", false),
		CORSOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),

		OTelEnabled:     getEnvAsBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),

		StoreDriver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", StorePostgres)),
		Database:    databaseFromEnv(),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendFrom:    getEnvOrDefault("RESEND_FROM_EMAIL", "StarShield Garantias <onboarding@resend.dev>"),
		ResendBaseURL: getEnvOrDefault("RESEND_BASE_URL", "https://api.resend.com"),
		SupportEmail:  os.Getenv("SUPPORT_EMAIL"),

		WarrantyTermMonths: getEnvAsInt("WARRANTY_TERM_MONTHS", 12),
		WarrantyMaxClaims:  getEnvAsInt("WARRANTY_MAX_CLAIMS", 2),
		InsuranceProvider:  os.Getenv("INSURANCE_PROVIDER"),

		PubSubProjectID:  os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubAuditTopic: getEnvOrDefault("PUBSUB_AUDIT_TOPIC", "warranty-audit"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.StoreDriver != StoreMemory && c.StoreDriver != StorePostgres {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver))
	}
	if c.WarrantyTermMonths <= 0 {
		errs = append(errs, errors.New("WARRANTY_TERM_MONTHS must be positive"))
	}
	if c.WarrantyMaxClaims <= 0 {
		errs = append(errs, errors.New("WARRANTY_MAX_CLAIMS must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.StoreDriver == StorePostgres && c.Database.MaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

// EmailEnabled reports whether a Resend API key is configured.
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

// IsProduction reports whether the API runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// databaseFromEnv reads DATABASE_URL, or the discrete DB_* variables when it
// is unset.
func databaseFromEnv() database.Config {
	cfg := database.DefaultConfig()
	cfg.URL = os.Getenv("DATABASE_URL")
	cfg.Host = getEnvOrDefault("DB_HOST", cfg.Host)
	cfg.Port = getEnvAsInt("DB_PORT", cfg.Port)
	cfg.User = getEnvOrDefault("DB_USER", cfg.User)
	cfg.Password = getEnvOrDefault("DB_PASSWORD", cfg.Password)
	cfg.Name = getEnvOrDefault("DB_NAME", cfg.Name)
	cfg.SSLMode = getEnvOrDefault("DB_SSL_MODE", cfg.SSLMode)
	cfg.MaxConns = int32(getEnvAsInt("DB_MAX_CONNS", int(cfg.MaxConns))) //nolint:gosec // small operator-set value
	cfg.MinConns = int32(getEnvAsInt("DB_MIN_CONNS", int(cfg.MinConns))) //nolint:gosec // small operator-set value
	cfg.MaxConnLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", cfg.MaxConnLifetime)
	cfg.MaxConnIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", cfg.MaxConnIdleTime)
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
