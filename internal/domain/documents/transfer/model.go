// Package transfer implements inter-warehouse transfers. Applying one
// produces a transfer_out and transfer_in ledger pair per line, both
// carrying the document's reference number.
package transfer

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
	Prefix = "TRF"
)

// Item is one transferred product line.
type Item struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// Transfer moves goods between two warehouses.
type Transfer struct {
	entity.Document

	FromWarehouseID id.ID `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID `db:"to_warehouse_id" json:"toWarehouseId"`

	// Items are stored as a JSONB column
	Items []Item `db:"items" json:"items"`
}

// Kind returns the document kind.
func (t *Transfer) Kind() entity.Kind { return entity.KindTransfer }

// Validate checks the transfer is well formed for applying.
func (t *Transfer) Validate() error {
	if id.IsNil(t.FromWarehouseID) || id.IsNil(t.ToWarehouseID) {
		return apperror.NewValidation("both warehouses are required")
	}
	if t.FromWarehouseID == t.ToWarehouseID {
		return apperror.NewValidation("source and destination warehouses must differ")
	}
	if len(t.Items) == 0 {
		return apperror.NewValidation("transfer must have at least one item")
	}
	for i, item := range t.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("line", i)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i)
		}
	}
	return nil
}

// --- movement.Appliable ---

func (t *Transfer) DocumentID() id.ID   { return t.ID }
func (t *Transfer) DocumentRef() string { return t.Number }

// StockEffects emits the out effect before the in effect per line, so
// the availability check at the source runs before the destination is
// credited.
func (t *Transfer) StockEffects() []movement.Effect {
	effects := make([]movement.Effect, 0, 2*len(t.Items))
	for _, item := range t.Items {
		effects = append(effects,
			movement.Effect{
				ProductID:   item.ProductID,
				WarehouseID: t.FromWarehouseID,
				Type:        entity.TxTypeTransferOut,
				Change:      item.Quantity.Neg(),
				Notes:       t.Notes,
			},
			movement.Effect{
				ProductID:   item.ProductID,
				WarehouseID: t.ToWarehouseID,
				Type:        entity.TxTypeTransferIn,
				Change:      item.Quantity,
				Notes:       t.Notes,
			},
		)
	}
	return effects
}

// Repository is the persistence contract for transfers.
type Repository interface {
	Create(ctx context.Context, doc *Transfer) error
	GetByID(ctx context.Context, docID id.ID) (*Transfer, error)
	GetByNumber(ctx context.Context, number string) (*Transfer, error)
	Update(ctx context.Context, doc *Transfer) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Transfer], error)
}
