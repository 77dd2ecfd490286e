// Package receipt implements goods receipts: inbound stock into a warehouse.
package receipt

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
	Prefix = "REC"
)

// Item is one received product line.
type Item struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
}

// Receipt records goods arriving into a warehouse.
type Receipt struct {
	entity.Document

	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`
	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	// Items are stored as a JSONB column
	Items []Item `db:"items" json:"items"`
}

// Kind returns the document kind.
func (r *Receipt) Kind() entity.Kind { return entity.KindReceipt }

// Validate checks the receipt is well formed for applying.
func (r *Receipt) Validate() error {
	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("receipt must have at least one item")
	}
	for i, item := range r.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("line", i)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("item unit price must not be negative").
				WithDetail("line", i)
		}
	}
	return nil
}

// TotalCost sums line quantities times unit prices.
func (r *Receipt) TotalCost() types.Money {
	total := types.ZeroMoney()
	for _, item := range r.Items {
		line := item.UnitPrice.Mul(types.NewMoneyFromQuantity(item.Quantity))
		total = total.Add(line)
	}
	return total
}

// --- movement.Appliable ---

func (r *Receipt) DocumentID() id.ID   { return r.ID }
func (r *Receipt) DocumentRef() string { return r.Number }

// StockEffects returns one positive effect per line.
func (r *Receipt) StockEffects() []movement.Effect {
	effects := make([]movement.Effect, 0, len(r.Items))
	for _, item := range r.Items {
		effects = append(effects, movement.Effect{
			ProductID:   item.ProductID,
			WarehouseID: r.WarehouseID,
			Type:        entity.TxTypeReceipt,
			Change:      item.Quantity,
			Notes:       r.Notes,
		})
	}
	return effects
}

// Repository is the persistence contract for receipts.
type Repository interface {
	Create(ctx context.Context, doc *Receipt) error
	GetByID(ctx context.Context, docID id.ID) (*Receipt, error)
	GetByNumber(ctx context.Context, number string) (*Receipt, error)
	Update(ctx context.Context, doc *Receipt) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Receipt], error)
}
