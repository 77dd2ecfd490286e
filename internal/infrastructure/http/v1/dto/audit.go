package dto

import (
	"encoding/json"
	"time"

	"stocktrack/internal/domain/audit"
)

// AuditRecordResponse represents one audit event in API responses.
type AuditRecordResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FromAuditRecord converts a domain audit record to a response DTO.
func FromAuditRecord(r audit.Record) AuditRecordResponse {
	return AuditRecordResponse{
		ID:         r.ID.String(),
		EntityType: r.EntityType,
		EntityID:   r.EntityID.String(),
		Action:     string(r.Action),
		UserID:     r.UserID,
		Changes:    r.Changes,
		CreatedAt:  r.CreatedAt,
	}
}
