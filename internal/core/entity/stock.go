package entity

import (
	"fmt"
	"time"

	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
)

// TransactionType tags a ledger entry with the movement that produced it.
type TransactionType string

const (
	TxTypeReceipt     TransactionType = "receipt"
	TxTypeDelivery    TransactionType = "delivery"
	TxTypeTransferIn  TransactionType = "transfer_in"
	TxTypeTransferOut TransactionType = "transfer_out"
	TxTypeAdjustment  TransactionType = "adjustment"
)

// LedgerEntry is one immutable quantity change for a (product, warehouse) pair.
// Entries are append-only: never updated, never deleted. The running chain of
// before/after values for a key reconstructs every historical balance.
type LedgerEntry struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Dimensions
	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Type TransactionType `db:"transaction_type" json:"transactionType"`

	// TransactionID is the originating document. Nil for system-seeded entries.
	TransactionID id.ID `db:"transaction_id" json:"transactionId"`

	// QuantityChange is signed; QuantityAfter = QuantityBefore + QuantityChange
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  types.Quantity `db:"quantity_after" json:"quantityAfter"`

	// ReferenceNumber is the document's human-readable number
	ReferenceNumber string `db:"reference_number" json:"referenceNumber"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewLedgerEntry builds an entry with QuantityAfter derived from before+change,
// so the internal invariant holds by construction.
func NewLedgerEntry(
	productID, warehouseID id.ID,
	txType TransactionType,
	transactionID id.ID,
	before, change types.Quantity,
	referenceNumber, notes, createdBy string,
) LedgerEntry {
	return LedgerEntry{
		ID:              id.New(),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Type:            txType,
		TransactionID:   transactionID,
		QuantityChange:  change,
		QuantityBefore:  before,
		QuantityAfter:   before + change,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now().UTC(),
	}
}

// Validate checks the entry-internal arithmetic invariant.
func (e *LedgerEntry) Validate() error {
	if e.QuantityAfter != e.QuantityBefore+e.QuantityChange {
		return fmt.Errorf("ledger entry %s: after (%s) != before (%s) + change (%s)",
			e.ID, e.QuantityAfter, e.QuantityBefore, e.QuantityChange)
	}
	return nil
}

// StockBalance is the materialized current quantity for a (product, warehouse)
// pair. An absent row means quantity zero. Only the movement engine writes it.
type StockBalance struct {
	// Dimensions
	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Metadata
	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
