// Package stock exposes read access to balances and the movement ledger,
// plus the repository contract the movement engine writes through.
package stock

import (
	"context"
	"time"

	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
)

// Key identifies a (product, warehouse) balance dimension.
type Key struct {
	ProductID   id.ID
	WarehouseID id.ID
}

// Less imposes a total order on keys. The movement engine locks balance
// rows in this order so concurrent documents touching the same keys
// cannot deadlock.
func (k Key) Less(other Key) bool {
	if k.ProductID != other.ProductID {
		return k.ProductID.String() < other.ProductID.String()
	}
	return k.WarehouseID.String() < other.WarehouseID.String()
}

// LedgerFilter narrows ledger history queries.
type LedgerFilter struct {
	ProductID   id.ID
	WarehouseID id.ID
	Type        entity.TransactionType
	From        time.Time
	To          time.Time

	domain.ListFilter
}

// BalanceFilter narrows balance listings.
type BalanceFilter struct {
	WarehouseID id.ID
	ProductID   id.ID

	// NonZeroOnly drops rows whose quantity is exactly zero.
	NonZeroOnly bool

	domain.ListFilter
}

// Repository is the persistence contract for balances and ledger entries.
//
// The *ForUpdate and write methods must run inside a transaction started
// by the tx manager; implementations return an error otherwise. Reads
// work both inside and outside transactions.
type Repository interface {
	// GetBalance returns the current balance for a key. A missing row
	// reads as a zero balance, not an error.
	GetBalance(ctx context.Context, key Key) (entity.StockBalance, error)

	// EnsureBalanceRow idempotently inserts a zero-quantity balance row
	// for the key so a later GetBalanceForUpdate has a row to lock.
	EnsureBalanceRow(ctx context.Context, key Key) error

	// GetBalanceForUpdate reads the balance under a row lock held until
	// the surrounding transaction ends.
	GetBalanceForUpdate(ctx context.Context, key Key) (entity.StockBalance, error)

	// UpdateBalance sets the key's quantity and movement timestamp.
	UpdateBalance(ctx context.Context, balance entity.StockBalance) error

	// AppendEntries inserts ledger entries. Entries are immutable once
	// written.
	AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error

	// ListBalances returns a page of balances.
	ListBalances(ctx context.Context, filter BalanceFilter) (domain.ListResult[entity.StockBalance], error)

	// ListLedger returns a page of ledger history, newest first by default.
	ListLedger(ctx context.Context, filter LedgerFilter) (domain.ListResult[entity.LedgerEntry], error)

	// SumLedger returns the sum of quantity changes for a key. Equals
	// the balance when ledger and balance are consistent.
	SumLedger(ctx context.Context, key Key) (types.Quantity, error)
}
