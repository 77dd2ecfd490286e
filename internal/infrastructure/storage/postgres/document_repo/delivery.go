package document_repo

import (
	"stocktrack/internal/domain/documents/delivery"
	"stocktrack/internal/infrastructure/storage/postgres"
)

const deliveriesTable = "doc_deliveries"

// Compile-time check.
var _ delivery.Repository = (*DeliveryRepo)(nil)

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	*baseRepo[*delivery.Delivery]
}

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(txManager *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		baseRepo: newBaseRepo(
			txManager,
			deliveriesTable,
			postgres.ExtractDBColumns[delivery.Delivery](),
			func() *delivery.Delivery { return &delivery.Delivery{} },
		),
	}
}
