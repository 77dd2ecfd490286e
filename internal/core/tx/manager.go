// Package tx abstracts transaction management so the movement engine
// and the document services stay free of storage concerns. The pgx
// implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside a database transaction. The movement
// engine leans on this contract: a document write, its ledger entries
// and the balance updates either all commit or none do.
type Manager interface {
	// RunInTransaction executes fn within a transaction, committing on
	// nil and rolling back on error. Nested calls reuse the
	// transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with consistent-snapshot reads.
// Reconciliation uses it so the balance row and its ledger sum come
// from the same point in time.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; every statement
	// in fn sees one snapshot. Writes inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
