// Package stock_repo provides the PostgreSQL implementation of the stock
// repository: the append-only ledger and the materialized balances.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
	"stocktrack/internal/domain/stock"
	"stocktrack/internal/infrastructure/storage/postgres"
)

const (
	ledgerTable   = "stock_ledger"
	balancesTable = "stock_balances"

	// copyThreshold switches AppendEntries to the COPY protocol.
	copyThreshold = 50
)

var ledgerColumns = []string{
	"id", "product_id", "warehouse_id", "transaction_type", "transaction_id",
	"quantity_change", "quantity_before", "quantity_after",
	"reference_number", "notes", "created_by", "created_at",
}

var balanceColumns = []string{
	"product_id", "warehouse_id", "quantity", "last_movement_at", "updated_at",
}

// Compile-time check.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetBalance returns the current balance. A missing row reads as zero.
func (r *StockRepo) GetBalance(ctx context.Context, key stock.Key) (entity.StockBalance, error) {
	var balance entity.StockBalance

	q := r.builder.Select(balanceColumns...).
		From(balancesTable).
		Where(squirrel.Eq{
			"product_id":   key.ProductID,
			"warehouse_id": key.WarehouseID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				ProductID:   key.ProductID,
				WarehouseID: key.WarehouseID,
				Quantity:    0,
			}, nil
		}
		return balance, apperror.NewStorage(fmt.Errorf("get balance: %w", err))
	}

	return balance, nil
}

// EnsureBalanceRow idempotently inserts a zero balance row, giving a
// later FOR UPDATE a row to lock even for never-moved products.
func (r *StockRepo) EnsureBalanceRow(ctx context.Context, key stock.Key) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("EnsureBalanceRow requires transaction context")
	}

	sql := `
		INSERT INTO stock_balances (product_id, warehouse_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, key.ProductID, key.WarehouseID); err != nil {
		return apperror.NewStorage(fmt.Errorf("ensure balance row: %w", err))
	}
	return nil
}

// GetBalanceForUpdate returns the balance with a pessimistic row lock.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, key stock.Key) (entity.StockBalance, error) {
	if r.txManager.GetTx(ctx) == nil {
		return entity.StockBalance{}, fmt.Errorf("GetBalanceForUpdate requires transaction context")
	}

	var balance entity.StockBalance

	sql := `
		SELECT product_id, warehouse_id, quantity, last_movement_at, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE
	`

	querier := r.txManager.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &balance, sql, key.ProductID, key.WarehouseID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				ProductID:   key.ProductID,
				WarehouseID: key.WarehouseID,
				Quantity:    0,
			}, nil
		}
		return balance, apperror.NewStorage(fmt.Errorf("get balance for update: %w", err))
	}

	return balance, nil
}

// UpdateBalance sets the balance row for a key.
func (r *StockRepo) UpdateBalance(ctx context.Context, balance entity.StockBalance) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("UpdateBalance requires transaction context")
	}

	q := r.builder.Update(balancesTable).
		Set("quantity", balance.Quantity).
		Set("last_movement_at", balance.LastMovementAt).
		Set("updated_at", balance.UpdatedAt).
		Where(squirrel.Eq{
			"product_id":   balance.ProductID,
			"warehouse_id": balance.WarehouseID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("update balance: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance: row for %s/%s missing", balance.ProductID, balance.WarehouseID)
	}

	return nil
}

// AppendEntries inserts ledger entries. Large batches go through COPY.
func (r *StockRepo) AppendEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("AppendEntries requires transaction context")
	}

	if len(entries) >= copyThreshold {
		return r.copyEntries(ctx, entries)
	}

	q := r.builder.Insert(ledgerTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(entryValues(e)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewStorage(fmt.Errorf("insert ledger entries: %w", err))
	}

	return nil
}

// copyEntries bulk inserts through the COPY protocol.
func (r *StockRepo) copyEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	inserter := postgres.NewBatchInserter(r.txManager)

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryValues(e))
	}

	if _, err := inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows); err != nil {
		return apperror.NewStorage(fmt.Errorf("copy ledger entries: %w", err))
	}
	return nil
}

func entryValues(e entity.LedgerEntry) []any {
	return []any{
		e.ID, e.ProductID, e.WarehouseID, e.Type, e.TransactionID,
		e.QuantityChange, e.QuantityBefore, e.QuantityAfter,
		e.ReferenceNumber, e.Notes, e.CreatedBy, e.CreatedAt,
	}
}

// ListBalances returns a page of balances.
func (r *StockRepo) ListBalances(ctx context.Context, filter stock.BalanceFilter) (domain.ListResult[entity.StockBalance], error) {
	var result domain.ListResult[entity.StockBalance]

	base := r.builder.Select().From(balancesTable)
	if !id.IsNil(filter.WarehouseID) {
		base = base.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if !id.IsNil(filter.ProductID) {
		base = base.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.NonZeroOnly {
		base = base.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	total, err := r.count(ctx, base)
	if err != nil {
		return result, err
	}

	q := base.Columns(balanceColumns...).
		OrderBy("product_id", "warehouse_id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, apperror.NewStorage(fmt.Errorf("select balances: %w", err))
	}

	result.Total = total
	return result, nil
}

// ListLedger returns a page of ledger history, newest first.
func (r *StockRepo) ListLedger(ctx context.Context, filter stock.LedgerFilter) (domain.ListResult[entity.LedgerEntry], error) {
	var result domain.ListResult[entity.LedgerEntry]

	base := r.builder.Select().From(ledgerTable)
	if !id.IsNil(filter.ProductID) {
		base = base.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if !id.IsNil(filter.WarehouseID) {
		base = base.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if filter.Type != "" {
		base = base.Where(squirrel.Eq{"transaction_type": filter.Type})
	}
	if !filter.From.IsZero() {
		base = base.Where(squirrel.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		base = base.Where(squirrel.Lt{"created_at": filter.To})
	}

	total, err := r.count(ctx, base)
	if err != nil {
		return result, err
	}

	q := base.Columns(ledgerColumns...).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, apperror.NewStorage(fmt.Errorf("select ledger: %w", err))
	}

	result.Total = total
	return result, nil
}

// SumLedger totals the quantity changes recorded for a key.
func (r *StockRepo) SumLedger(ctx context.Context, key stock.Key) (types.Quantity, error) {
	// SUM over bigint widens to numeric, cast back for the int64 scan.
	q := r.builder.Select("COALESCE(SUM(quantity_change), 0)::bigint").
		From(ledgerTable).
		Where(squirrel.Eq{
			"product_id":   key.ProductID,
			"warehouse_id": key.WarehouseID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, apperror.NewStorage(fmt.Errorf("sum ledger: %w", err))
	}
	return sum, nil
}

// count runs a COUNT(*) with the base query's WHERE clauses.
func (r *StockRepo) count(ctx context.Context, base squirrel.SelectBuilder) (int64, error) {
	sql, args, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, apperror.NewStorage(fmt.Errorf("count rows: %w", err))
	}
	return total, nil
}
