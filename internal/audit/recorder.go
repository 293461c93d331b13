package audit

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Publisher forwards recorded entries to an external sink.
type Publisher interface {
	Publish(ctx context.Context, entry *Entry) error
}

// Recorder writes audit entries on behalf of the lifecycle services.
// Recording is best-effort: failures are logged and never reach the caller.
type Recorder struct {
	repo      Repository
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// RecorderConfig holds configuration for the recorder.
type RecorderConfig struct {
	Repository Repository
	// Publisher is optional.
	Publisher Publisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewRecorder creates a new audit recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       now,
	}
}

// Record stores an entry. ID, timestamp and client details are filled in
// when the caller leaves them empty.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.repo == nil {
		return
	}

	if entry.ID == "" {
		entry.ID = "aud_" + uuid.New().String()[:22]
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	client := ClientFromContext(ctx)
	if entry.ActorID == "" {
		entry.ActorID = client.ActorID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = client.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = client.UserAgent
	}
	if entry.RequestID == "" {
		entry.RequestID = client.RequestID
	}
	entry.Metadata = maps.Clone(entry.Metadata)

	logger := r.logger.With().
		Str("audit_action", string(entry.Action)).
		Str("entity_type", string(entry.EntityType)).
		Str("entity_id", entry.EntityID).
		Logger()

	if err := r.repo.Append(ctx, &entry); err != nil {
		logger.Error().Err(err).Msg("failed to write audit entry")
		return
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, &entry); err != nil {
			logger.Warn().Err(err).Msg("failed to publish audit entry")
		}
	}
}
