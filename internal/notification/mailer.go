package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/starshield/warranty/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, also used as metric labels.
const (
	TemplateDeviceRegistered = "device_registered"
	TemplateClaimSupport     = "claim_support"
)

const (
	subjectDeviceRegistered = "Dispositivo Registrado com Sucesso - StarShield Garantias"
	subjectClaimSupport     = "Acionamento de Garantia %s - StarShield Garantias"
)

var saoPaulo = loadLocation("America/Sao_Paulo")

// DeviceRegisteredData fills the registration confirmation sent to the owner.
type DeviceRegisteredData struct {
	OwnerName    string
	OwnerEmail   string
	Brand        string
	Model        string
	IMEI         string
	PolicyNumber string
	RegisteredAt time.Time
	ValidUntil   time.Time
}

// ClaimSupportData fills the notice sent to the support mailbox when a claim
// is submitted.
type ClaimSupportData struct {
	ProtocolNumber    string
	CustomerName      string
	CustomerCpf       string
	CustomerEmail     string
	CustomerPhone     string
	Brand             string
	Model             string
	IMEI              string
	FiscalNumber      string
	PolicyNumber      string
	RemainingClaims   int
	DamageLabel       string
	DamageDescription string
	IncidentDate      time.Time
}

// MailerConfig holds configuration for the mailer.
type MailerConfig struct {
	Notifier Notifier
	// SupportAddress receives claim notices. Empty disables them.
	SupportAddress string
	Metrics        *telemetry.LifecycleMetrics
	Logger         zerolog.Logger
}

// Mailer renders the transactional templates and hands them to a Notifier.
// Delivery is best-effort: failures are logged and reported as false.
type Mailer struct {
	notifier       Notifier
	supportAddress string
	metrics        *telemetry.LifecycleMetrics
	logger         zerolog.Logger
	templates      *template.Template
}

// NewMailer creates a new mailer.
func NewMailer(cfg MailerConfig) (*Mailer, error) {
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"date": formatDate}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}

	return &Mailer{
		notifier:       cfg.Notifier,
		supportAddress: cfg.SupportAddress,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		templates:      tmpl,
	}, nil
}

// SendDeviceRegistered sends the registration confirmation to the owner.
func (m *Mailer) SendDeviceRegistered(ctx context.Context, data DeviceRegisteredData) bool {
	if m == nil {
		return false
	}
	return m.send(ctx, TemplateDeviceRegistered, data.OwnerEmail, subjectDeviceRegistered, data)
}

// SendClaimSupport notifies the support mailbox about a submitted claim.
func (m *Mailer) SendClaimSupport(ctx context.Context, data ClaimSupportData) bool {
	if m == nil || m.supportAddress == "" {
		return false
	}
	return m.send(ctx, TemplateClaimSupport, m.supportAddress, fmt.Sprintf(subjectClaimSupport, data.ProtocolNumber), data)
}

func (m *Mailer) send(ctx context.Context, name, to, subject string, data any) bool {
	logger := m.logger.With().Str("template", name).Logger()

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		logger.Error().Err(err).Msg("failed to render email")
		m.metrics.RecordEmail(ctx, name, false)
		return false
	}

	err := m.notifier.Send(ctx, Email{
		To:      []string{to},
		Subject: subject,
		HTML:    buf.String(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to send email")
		m.metrics.RecordEmail(ctx, name, false)
		return false
	}

	logger.Info().Msg("email sent")
	m.metrics.RecordEmail(ctx, name, true)
	return true
}

func formatDate(t time.Time) string {
	return t.In(saoPaulo).Format("02/01/2006")
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}
