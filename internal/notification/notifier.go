// Package notification delivers transactional email to customers and to the
// support mailbox.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrDisabled is returned by DisabledNotifier for every message.
var ErrDisabled = errors.New("email delivery is disabled")

// Email is a single outgoing HTML message.
type Email struct {
	To      []string
	Subject string
	HTML    string
}

// Notifier sends email. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// DisabledNotifier drops every message after logging it. It is used when no
// email provider is configured.
type DisabledNotifier struct {
	logger zerolog.Logger
}

// NewDisabledNotifier creates a notifier that never delivers.
func NewDisabledNotifier(logger zerolog.Logger) *DisabledNotifier {
	return &DisabledNotifier{logger: logger}
}

// Send logs the message and reports ErrDisabled.
func (n *DisabledNotifier) Send(_ context.Context, email Email) error {
	n.logger.Info().
		Str("to", strings.Join(email.To, ",")).
		Str("subject", email.Subject).
		Msg("email delivery disabled, message dropped")
	return ErrDisabled
}

var _ Notifier = (*DisabledNotifier)(nil)
