package document_repo

import (
	"stocktrack/internal/domain/documents/adjustment"
	"stocktrack/internal/infrastructure/storage/postgres"
)

const adjustmentsTable = "doc_adjustments"

// Compile-time check.
var _ adjustment.Repository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	*baseRepo[*adjustment.Adjustment]
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txManager *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		baseRepo: newBaseRepo(
			txManager,
			adjustmentsTable,
			postgres.ExtractDBColumns[adjustment.Adjustment](),
			func() *adjustment.Adjustment { return &adjustment.Adjustment{} },
		),
	}
}
