// Package movement applies the stock effects of validated documents.
//
// Every document kind funnels through the one Engine. An application is
// a single database transaction covering the ledger append, the balance
// update and the document's own status write, so a failure at any point
// leaves no partial movement behind.
package movement

import (
	"context"
	"sort"
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/tx"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/stock"
	"stocktrack/pkg/logger"
)

// Effect is one quantity change a document wants to make.
type Effect struct {
	ProductID   id.ID
	WarehouseID id.ID
	Type        entity.TransactionType

	// Change is the signed quantity delta.
	Change types.Quantity

	// Absolute pins the resulting balance to Before+Change instead of
	// adding Change to the live balance. Adjustments use it: the ledger
	// records the counted-against snapshot taken when the document was
	// drafted, and the balance lands on the physical count even if other
	// movements happened since.
	Absolute bool

	// Before is the snapshot balance an Absolute effect was computed
	// against. Ignored for relative effects.
	Before types.Quantity

	Notes string
}

// Key returns the balance dimension the effect touches.
func (e Effect) Key() stock.Key {
	return stock.Key{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
}

// Appliable is a document whose effects the engine can apply.
type Appliable interface {
	DocumentID() id.ID
	DocumentRef() string
	IsApplied() bool
	StockEffects() []Effect
}

// Engine applies document effects atomically.
type Engine struct {
	txManager tx.Manager
	repo      stock.Repository
}

// NewEngine creates an Engine.
func NewEngine(txManager tx.Manager, repo stock.Repository) *Engine {
	return &Engine{txManager: txManager, repo: repo}
}

// Apply applies the document's stock effects and runs persist inside the
// same transaction. persist must write the document's new status; any
// error it returns rolls back the ledger and balance writes too.
//
// Effects are checked against balances read under row locks, taken in a
// deterministic key order. Within one document, effects see the results
// of earlier effects, so a multi-line delivery cannot overdraw a balance
// line by line. The first shortage aborts before anything is written.
func (e *Engine) Apply(ctx context.Context, doc Appliable, persist func(ctx context.Context) error) error {
	if doc.IsApplied() {
		return apperror.NewDocumentApplied(doc.DocumentID().String())
	}

	effects := doc.StockEffects()

	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		balances, err := e.lockBalances(ctx, effects)
		if err != nil {
			return err
		}

		entries, err := e.buildEntries(ctx, doc, effects, balances)
		if err != nil {
			return err
		}

		if len(entries) > 0 {
			if err := e.repo.AppendEntries(ctx, entries); err != nil {
				return err
			}
			if err := e.writeBalances(ctx, balances); err != nil {
				return err
			}
		}

		if err := persist(ctx); err != nil {
			return err
		}

		logger.Info(ctx, "document applied",
			"document_id", doc.DocumentID(),
			"reference", doc.DocumentRef(),
			"entries", len(entries),
		)
		return nil
	})
}

// lockBalances locks every touched balance row and returns the live
// quantities. Keys are sorted before locking so two documents touching
// the same rows always lock them in the same order.
func (e *Engine) lockBalances(ctx context.Context, effects []Effect) (map[stock.Key]types.Quantity, error) {
	seen := make(map[stock.Key]struct{}, len(effects))
	keys := make([]stock.Key, 0, len(effects))
	for _, eff := range effects {
		key := eff.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	balances := make(map[stock.Key]types.Quantity, len(keys))
	for _, key := range keys {
		if err := e.repo.EnsureBalanceRow(ctx, key); err != nil {
			return nil, err
		}
		balance, err := e.repo.GetBalanceForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		balances[key] = balance.Quantity
	}
	return balances, nil
}

// buildEntries walks effects in document order, carrying the running
// balance per key, and rejects the first effect that would go negative.
func (e *Engine) buildEntries(
	ctx context.Context,
	doc Appliable,
	effects []Effect,
	balances map[stock.Key]types.Quantity,
) ([]entity.LedgerEntry, error) {
	createdBy := ""
	if actor, ok := security.GetActor(ctx); ok {
		createdBy = actor.UserID
	}

	entries := make([]entity.LedgerEntry, 0, len(effects))
	for _, eff := range effects {
		key := eff.Key()

		var before types.Quantity
		if eff.Absolute {
			before = eff.Before
		} else {
			before = balances[key]
			if before+eff.Change < 0 {
				return nil, apperror.NewInsufficientStock(
					eff.ProductID.String(),
					(-eff.Change).String(),
					before.String(),
				)
			}
		}

		entry := entity.NewLedgerEntry(
			eff.ProductID, eff.WarehouseID,
			eff.Type,
			doc.DocumentID(),
			before, eff.Change,
			doc.DocumentRef(),
			eff.Notes,
			createdBy,
		)
		entries = append(entries, entry)
		balances[key] = entry.QuantityAfter
	}
	return entries, nil
}

func (e *Engine) writeBalances(ctx context.Context, balances map[stock.Key]types.Quantity) error {
	now := time.Now().UTC()
	for key, quantity := range balances {
		balance := entity.StockBalance{
			ProductID:      key.ProductID,
			WarehouseID:    key.WarehouseID,
			Quantity:       quantity,
			LastMovementAt: now,
			UpdatedAt:      now,
		}
		if err := e.repo.UpdateBalance(ctx, balance); err != nil {
			return err
		}
	}
	return nil
}
