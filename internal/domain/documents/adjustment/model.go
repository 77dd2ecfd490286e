// Package adjustment implements stock adjustments: pinning a balance to
// a physically counted quantity.
package adjustment

import (
	"context"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
	"stocktrack/internal/domain/movement"
)

const (
	// Prefix for reference numbers.
	Prefix = "ADJ"
)

// Adjustment corrects one (product, warehouse) balance to a counted
// quantity. RecordedQuantity is the balance snapshot taken when the
// count was entered; the ledger delta is computed against it, not
// against the live balance at apply time.
type Adjustment struct {
	entity.Document

	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	RecordedQuantity types.Quantity `db:"recorded_quantity" json:"recordedQuantity"`
	PhysicalQuantity types.Quantity `db:"physical_quantity" json:"physicalQuantity"`

	Reason string `db:"reason" json:"reason,omitempty"`
}

// Kind returns the document kind.
func (a *Adjustment) Kind() entity.Kind { return entity.KindAdjustment }

// Delta is the signed correction: physical minus recorded.
func (a *Adjustment) Delta() types.Quantity {
	return a.PhysicalQuantity - a.RecordedQuantity
}

// Validate checks the adjustment is well formed for applying.
func (a *Adjustment) Validate() error {
	if id.IsNil(a.ProductID) {
		return apperror.NewValidation("product is required")
	}
	if id.IsNil(a.WarehouseID) {
		return apperror.NewValidation("warehouse is required")
	}
	if a.PhysicalQuantity.IsNegative() {
		return apperror.NewValidation("physical quantity must not be negative")
	}
	return nil
}

// --- movement.Appliable ---

func (a *Adjustment) DocumentID() id.ID   { return a.ID }
func (a *Adjustment) DocumentRef() string { return a.Number }

// StockEffects returns one absolute effect pinning the balance to the
// physical count.
func (a *Adjustment) StockEffects() []movement.Effect {
	return []movement.Effect{{
		ProductID:   a.ProductID,
		WarehouseID: a.WarehouseID,
		Type:        entity.TxTypeAdjustment,
		Change:      a.Delta(),
		Absolute:    true,
		Before:      a.RecordedQuantity,
		Notes:       a.Reason,
	}}
}

// Repository is the persistence contract for adjustments.
type Repository interface {
	Create(ctx context.Context, doc *Adjustment) error
	GetByID(ctx context.Context, docID id.ID) (*Adjustment, error)
	GetByNumber(ctx context.Context, number string) (*Adjustment, error)
	Update(ctx context.Context, doc *Adjustment) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Adjustment], error)
}
