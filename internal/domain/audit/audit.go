// Package audit defines the trail of who did what to which document.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"stocktrack/internal/core/id"
)

// Action is the audited operation type.
type Action string

const (
	ActionCreate       Action = "create"
	ActionStatusChange Action = "status_change"
	ActionValidate     Action = "validate"
	ActionCancel       Action = "cancel"
)

// Record is one stored audit event, decompressed and ready to serve.
type Record struct {
	ID         id.ID
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    json.RawMessage
	CreatedAt  time.Time
}

// Recorder persists audit records. Implementations must tolerate being
// called outside a transaction; audit writes ride along when one is
// present in ctx.
type Recorder interface {
	// RecordChange stores one audit record for an entity.
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Trail is a Recorder whose records can be read back per entity.
type Trail interface {
	Recorder

	// EntityHistory returns the newest records for an entity, capped
	// at limit.
	EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Record, error)
}

// Nop is a Trail that discards everything. Used in tests and in the
// seed command.
type Nop struct{}

func (Nop) RecordChange(context.Context, string, id.ID, Action, map[string]any) error {
	return nil
}

func (Nop) EntityHistory(context.Context, string, id.ID, int) ([]Record, error) {
	return nil, nil
}
