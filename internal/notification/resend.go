package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/starshield/warranty/internal/provider/resilience"
)

const (
	// ProviderName identifies the Resend client in the provider registry.
	ProviderName = "resend"

	defaultResendBaseURL = "https://api.resend.com"
	maxErrorBody         = 1024
)

// ResendConfig holds configuration for the Resend notifier.
type ResendConfig struct {
	APIKey  string
	From    string
	BaseURL string
	// Client is the resilient HTTP client used for every call.
	Client *resilience.Client
}

// ResendNotifier sends email through the Resend HTTP API.
type ResendNotifier struct {
	apiKey  string
	from    string
	baseURL string
	client  *resilience.Client
}

// NewResendNotifier creates a new Resend notifier.
func NewResendNotifier(cfg ResendConfig) *ResendNotifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultResendBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &ResendNotifier{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// Send delivers the email. Non-2xx responses are returned as errors.
func (n *ResendNotifier) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:    n.from,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("encoding email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Retries reuse the key so Resend delivers at most once.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort detail
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result sendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if result.ID == "" {
		return errors.New("resend accepted the email without an id")
	}

	return nil
}

var _ Notifier = (*ResendNotifier)(nil)
