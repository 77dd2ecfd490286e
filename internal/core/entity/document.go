// Package entity provides core domain entities.
package entity

import (
	"time"

	"stocktrack/internal/core/id"
)

// Kind identifies a stock-affecting document type.
type Kind string

const (
	KindReceipt    Kind = "receipt"
	KindDelivery   Kind = "delivery"
	KindTransfer   Kind = "transfer"
	KindAdjustment Kind = "adjustment"
)

// Status is a document workflow status. Deliveries use the full chain;
// receipts and transfers treat the intermediate stages as display-only.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusWaiting  Status = "waiting"
	StatusPicking  Status = "picking"
	StatusPacking  Status = "packing"
	StatusReady    Status = "ready"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

// IsTerminal reports whether no further transitions are legal from s.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusWaiting, StatusPicking, StatusPacking,
		StatusReady, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// Document is the shared header of the four stock-affecting document kinds.
// A document is created in draft (or directly in done via the fast path),
// advances through status transitions only, and becomes immutable once it
// reaches done or canceled.
type Document struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable reference (PREFIX-timestamp-suffix),
	// shared with every ledger entry the document produces
	Number string `db:"number" json:"number"`

	Status Status `db:"status" json:"status"`

	// Date is the optional business date supplied by the caller
	Date *time.Time `db:"date" json:"date,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// Audit fields
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewDocument creates a new Document in draft with generated ID.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		ID:        id.New(),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// IsApplied reports whether the document's stock effect has been committed.
func (d *Document) IsApplied() bool {
	return d.Status == StatusDone
}