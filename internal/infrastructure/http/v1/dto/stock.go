package dto

import (
	"time"

	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/stock"
)

// --- Responses ---

// StockBalanceResponse represents one (product, warehouse) balance.
type StockBalanceResponse struct {
	ProductID      string         `json:"productId"`
	WarehouseID    string         `json:"warehouseId"`
	Quantity       types.Quantity `json:"quantity"`
	LastMovementAt time.Time      `json:"lastMovementAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// FromStockBalance converts a domain balance to a response DTO.
func FromStockBalance(b entity.StockBalance) StockBalanceResponse {
	return StockBalanceResponse{
		ProductID:      b.ProductID.String(),
		WarehouseID:    b.WarehouseID.String(),
		Quantity:       b.Quantity,
		LastMovementAt: b.LastMovementAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// ReconciliationResponse compares a balance against its ledger sum.
type ReconciliationResponse struct {
	ProductID   string         `json:"productId"`
	WarehouseID string         `json:"warehouseId"`
	Balance     types.Quantity `json:"balance"`
	LedgerSum   types.Quantity `json:"ledgerSum"`
	Consistent  bool           `json:"consistent"`
}

// FromReconciliation converts a reconciliation result to a response DTO.
func FromReconciliation(r stock.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ProductID:   r.Key.ProductID.String(),
		WarehouseID: r.Key.WarehouseID.String(),
		Balance:     r.Balance,
		LedgerSum:   r.LedgerSum,
		Consistent:  r.Consistent(),
	}
}

// LedgerEntryResponse represents one movement history row.
type LedgerEntryResponse struct {
	ID              string         `json:"id"`
	ProductID       string         `json:"productId"`
	WarehouseID     string         `json:"warehouseId"`
	TransactionType string         `json:"transactionType"`
	TransactionID   string         `json:"transactionId,omitempty"`
	QuantityChange  types.Quantity `json:"quantityChange"`
	QuantityBefore  types.Quantity `json:"quantityBefore"`
	QuantityAfter   types.Quantity `json:"quantityAfter"`
	ReferenceNumber string         `json:"referenceNumber"`
	Notes           string         `json:"notes,omitempty"`
	CreatedBy       string         `json:"createdBy,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// FromLedgerEntry converts a domain ledger entry to a response DTO.
func FromLedgerEntry(e entity.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:              e.ID.String(),
		ProductID:       e.ProductID.String(),
		WarehouseID:     e.WarehouseID.String(),
		TransactionType: string(e.Type),
		QuantityChange:  e.QuantityChange,
		QuantityBefore:  e.QuantityBefore,
		QuantityAfter:   e.QuantityAfter,
		ReferenceNumber: e.ReferenceNumber,
		Notes:           e.Notes,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
	// System-seeded entries have no originating document.
	if !id.IsNil(e.TransactionID) {
		resp.TransactionID = e.TransactionID.String()
	}
	return resp
}
