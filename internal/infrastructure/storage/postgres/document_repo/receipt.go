package document_repo

import (
	"stocktrack/internal/domain/documents/receipt"
	"stocktrack/internal/infrastructure/storage/postgres"
)

const receiptsTable = "doc_receipts"

// Compile-time check.
var _ receipt.Repository = (*ReceiptRepo)(nil)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*baseRepo[*receipt.Receipt]
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		baseRepo: newBaseRepo(
			txManager,
			receiptsTable,
			postgres.ExtractDBColumns[receipt.Receipt](),
			func() *receipt.Receipt { return &receipt.Receipt{} },
		),
	}
}
