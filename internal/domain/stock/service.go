package stock

import (
	"context"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/tx"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
)

// Service exposes read-only stock queries. All writes to balances and
// the ledger go through the movement engine.
type Service struct {
	repo Repository
	tx   tx.ReadOnlyManager
}

// NewService creates a stock query service.
func NewService(repo Repository, txManager tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, tx: txManager}
}

// GetBalance returns the current balance for a key. A product never
// moved at a warehouse reads as zero.
func (s *Service) GetBalance(ctx context.Context, key Key) (entity.StockBalance, error) {
	if err := requirePermission(ctx, security.PermViewStock); err != nil {
		return entity.StockBalance{}, err
	}
	return s.repo.GetBalance(ctx, key)
}

// ListBalances returns a page of balances matching the filter.
func (s *Service) ListBalances(ctx context.Context, filter BalanceFilter) (domain.ListResult[entity.StockBalance], error) {
	if err := requirePermission(ctx, security.PermViewStock); err != nil {
		return domain.ListResult[entity.StockBalance]{}, err
	}
	filter.Normalize()
	return s.repo.ListBalances(ctx, filter)
}

// Reconciliation compares a balance row against its ledger sum.
type Reconciliation struct {
	Key       Key            `json:"key"`
	Balance   types.Quantity `json:"balance"`
	LedgerSum types.Quantity `json:"ledgerSum"`
}

// Consistent reports whether the balance matches the ledger.
func (r Reconciliation) Consistent() bool {
	return r.Balance == r.LedgerSum
}

// Reconcile checks one key's balance against the sum of its ledger
// entries. The two can only diverge through writes that bypass the
// movement engine. Both reads run in one read-only transaction so a
// concurrent apply cannot land between them and fake a drift.
func (s *Service) Reconcile(ctx context.Context, key Key) (Reconciliation, error) {
	if err := requirePermission(ctx, security.PermViewLedger); err != nil {
		return Reconciliation{}, err
	}

	var rec Reconciliation
	err := s.tx.ReadOnly(ctx, func(ctx context.Context) error {
		balance, err := s.repo.GetBalance(ctx, key)
		if err != nil {
			return err
		}
		sum, err := s.repo.SumLedger(ctx, key)
		if err != nil {
			return err
		}
		rec = Reconciliation{Key: key, Balance: balance.Quantity, LedgerSum: sum}
		return nil
	})
	return rec, err
}

// ListLedger returns a page of movement history.
func (s *Service) ListLedger(ctx context.Context, filter LedgerFilter) (domain.ListResult[entity.LedgerEntry], error) {
	if err := requirePermission(ctx, security.PermViewLedger); err != nil {
		return domain.ListResult[entity.LedgerEntry]{}, err
	}
	filter.Normalize()
	return s.repo.ListLedger(ctx, filter)
}

func requirePermission(ctx context.Context, permission string) error {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return apperror.NewUnauthorized("authentication required")
	}
	if !security.HasPermission(actor.Role, permission) {
		return apperror.NewForbidden("missing permission: " + permission)
	}
	return nil
}
