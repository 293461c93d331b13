// Package audit keeps an append-only trail of the actions taken against
// devices, warranties and claims.
package audit

import (
	"context"
	"time"
)

// Action identifies what happened to an entity.
type Action string

const (
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionView             Action = "view"
	ActionValidateWarranty Action = "validate_warranty"
	ActionSubmitClaim      Action = "submit_claim"
	ActionApproveClaim     Action = "approve_claim"
	ActionRejectClaim      Action = "reject_claim"
	ActionUploadFile       Action = "upload_file"
)

// EntityType identifies the kind of record an entry refers to.
type EntityType string

const (
	EntityUser     EntityType = "user"
	EntityDevice   EntityType = "device"
	EntityWarranty EntityType = "warranty"
	EntityClaim    EntityType = "claim"
	EntityFile     EntityType = "file"
)

// Entry is a single immutable audit record.
type Entry struct {
	ID          string
	Action      Action
	EntityType  EntityType
	EntityID    string
	ActorID     string
	IPAddress   string
	UserAgent   string
	RequestID   string
	Description string

	// Metadata holds action-specific details. Values are limited to JSON
	// compatible types: strings, numbers, booleans and nested maps or slices.
	Metadata map[string]any

	Timestamp time.Time
}

// ListOptions contains options for listing entries.
type ListOptions struct {
	Limit int
}

// Client describes the caller an entry is attributed to.
type Client struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

type clientKey struct{}

// WithClient returns a context carrying the calling client.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the client stored by WithClient, or the zero value.
func ClientFromContext(ctx context.Context) Client {
	if c, ok := ctx.Value(clientKey{}).(Client); ok {
		return c
	}
	return Client{}
}
