// Package delivery implements delivery orders: outbound stock leaving a
// warehouse through the picking workflow.
package delivery

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
	Prefix = "DO"
)

// Item is one delivered product line.
type Item struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// Delivery records goods leaving a warehouse. Unlike the other kinds it
// walks the full picking chain before the validating transition.
type Delivery struct {
	entity.Document

	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`
	CustomerName string `db:"customer_name" json:"customerName,omitempty"`

	// Items are stored as a JSONB column
	Items []Item `db:"items" json:"items"`
}

// Kind returns the document kind.
func (d *Delivery) Kind() entity.Kind { return entity.KindDelivery }

// Validate checks the delivery is well formed for applying.
func (d *Delivery) Validate() error {
	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("warehouse is required")
	}
	if len(d.Items) == 0 {
		return apperror.NewValidation("delivery must have at least one item")
	}
	for i, item := range d.Items {
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

func (d *Delivery) DocumentID() id.ID   { return d.ID }
func (d *Delivery) DocumentRef() string { return d.Number }

// StockEffects returns one negative effect per line.
func (d *Delivery) StockEffects() []movement.Effect {
	effects := make([]movement.Effect, 0, len(d.Items))
	for _, item := range d.Items {
		effects = append(effects, movement.Effect{
			ProductID:   item.ProductID,
			WarehouseID: d.WarehouseID,
			Type:        entity.TxTypeDelivery,
			Change:      item.Quantity.Neg(),
			Notes:       d.Notes,
		})
	}
	return effects
}

// Repository is the persistence contract for deliveries.
type Repository interface {
	Create(ctx context.Context, doc *Delivery) error
	GetByID(ctx context.Context, docID id.ID) (*Delivery, error)
	GetByNumber(ctx context.Context, number string) (*Delivery, error)
	Update(ctx context.Context, doc *Delivery) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Delivery], error)
}
