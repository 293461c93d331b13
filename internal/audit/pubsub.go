package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

// PubSubPublisher publishes audit entries to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	TopicName string
}

type eventMessage struct {
	ID          string         `json:"id"`
	Action      Action         `json:"action"`
	EntityType  EntityType     `json:"entity_type"`
	EntityID    string         `json:"entity_id,omitempty"`
	ActorID     string         `json:"actor_id,omitempty"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewPubSubPublisher creates a new Pub/Sub audit publisher.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
	}, nil
}

// Publish sends the entry and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	res := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"action":      string(entry.Action),
			"entity_type": string(entry.EntityType),
		},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publishing audit entry: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

func encodeEntry(entry *Entry) ([]byte, error) {
	data, err := json.Marshal(eventMessage{
		ID:          entry.ID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		ActorID:     entry.ActorID,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		RequestID:   entry.RequestID,
		Description: entry.Description,
		Metadata:    entry.Metadata,
		Timestamp:   entry.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding audit entry: %w", err)
	}
	return data, nil
}

var _ Publisher = (*PubSubPublisher)(nil)
