package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/starshield/warranty/internal/telemetry"

// Outcome labels shared by the lifecycle counters.
const (
	OutcomeSuccess           = "success"
	OutcomeFailure           = "failure"
	OutcomeDuplicate         = "duplicate"
	OutcomeValid             = "valid"
	OutcomeDeviceNotFound    = "device_not_found"
	OutcomeNoActiveWarranty  = "no_active_warranty"
	OutcomeWarrantyExpired   = "warranty_expired"
	OutcomeQuotaExceeded     = "quota_exceeded"
	OutcomeProtocolCollision = "protocol_collision"
)

// LifecycleMetrics counts warranty and claim lifecycle events.
// A nil *LifecycleMetrics records nothing.
type LifecycleMetrics struct {
	registrations metric.Int64Counter
	validations   metric.Int64Counter
	claims        metric.Int64Counter
	emails        metric.Int64Counter
}

// NewLifecycleMetrics creates the lifecycle counters on the global meter.
func NewLifecycleMetrics() (*LifecycleMetrics, error) {
	meter := otel.Meter(meterName)

	registrations, err := meter.Int64Counter(
		"warranty.registrations",
		metric.WithDescription("Device registrations by outcome"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	validations, err := meter.Int64Counter(
		"warranty.validations",
		metric.WithDescription("Warranty validations by outcome"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, err
	}

	claims, err := meter.Int64Counter(
		"warranty.claims",
		metric.WithDescription("Claim submissions by outcome"),
		metric.WithUnit("{claim}"),
	)
	if err != nil {
		return nil, err
	}

	emails, err := meter.Int64Counter(
		"warranty.emails",
		metric.WithDescription("Notification emails by template and delivery result"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, err
	}

	return &LifecycleMetrics{
		registrations: registrations,
		validations:   validations,
		claims:        claims,
		emails:        emails,
	}, nil
}

// RecordRegistration counts a device registration attempt.
func (m *LifecycleMetrics) RecordRegistration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordValidation counts a warranty validation.
func (m *LifecycleMetrics) RecordValidation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordClaim counts a claim submission attempt.
func (m *LifecycleMetrics) RecordClaim(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.claims.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordEmail counts a notification email.
func (m *LifecycleMetrics) RecordEmail(ctx context.Context, template string, sent bool) {
	if m == nil {
		return
	}
	m.emails.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", template),
		attribute.Bool("sent", sent),
	))
}

// ProviderMetrics holds metrics for external provider calls.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// NewProviderMetrics creates metrics for monitoring external provider calls.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// RecordRequest records metrics for a provider request. A nil receiver is a no-op.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}

	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Recorded after the request context may already be cancelled.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
