package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
)

type fakeRepo struct {
	balances   map[Key]entity.StockBalance
	ledgerSums map[Key]types.Quantity

	gotBalanceFilter BalanceFilter
	gotLedgerFilter  LedgerFilter
}

func (r *fakeRepo) GetBalance(_ context.Context, key Key) (entity.StockBalance, error) {
	if b, ok := r.balances[key]; ok {
		return b, nil
	}
	return entity.StockBalance{ProductID: key.ProductID, WarehouseID: key.WarehouseID}, nil
}

func (r *fakeRepo) EnsureBalanceRow(context.Context, Key) error { return nil }

func (r *fakeRepo) GetBalanceForUpdate(ctx context.Context, key Key) (entity.StockBalance, error) {
	return r.GetBalance(ctx, key)
}

func (r *fakeRepo) UpdateBalance(context.Context, entity.StockBalance) error { return nil }

func (r *fakeRepo) AppendEntries(context.Context, []entity.LedgerEntry) error { return nil }

func (r *fakeRepo) ListBalances(_ context.Context, filter BalanceFilter) (domain.ListResult[entity.StockBalance], error) {
	r.gotBalanceFilter = filter
	return domain.ListResult[entity.StockBalance]{}, nil
}

func (r *fakeRepo) ListLedger(_ context.Context, filter LedgerFilter) (domain.ListResult[entity.LedgerEntry], error) {
	r.gotLedgerFilter = filter
	return domain.ListResult[entity.LedgerEntry]{}, nil
}

func (r *fakeRepo) SumLedger(_ context.Context, key Key) (types.Quantity, error) {
	return r.ledgerSums[key], nil
}

// fakeTx satisfies tx.ReadOnlyManager and counts read-only scopes.
type fakeTx struct {
	readOnlyCalls int
}

func (m *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *fakeTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnlyCalls++
	return fn(ctx)
}

func newTestService(repo *fakeRepo) (*Service, *fakeTx) {
	txm := &fakeTx{}
	return NewService(repo, txm), txm
}

func staffCtx() context.Context {
	return security.WithActor(context.Background(), security.Actor{
		UserID: "stf-1", Role: security.RoleStaff,
	})
}

func TestService_GetBalance(t *testing.T) {
	key := Key{ProductID: id.New(), WarehouseID: id.New()}
	repo := &fakeRepo{balances: map[Key]entity.StockBalance{
		key: {ProductID: key.ProductID, WarehouseID: key.WarehouseID, Quantity: types.MustQuantity("9")},
	}}
	svc, _ := newTestService(repo)

	balance, err := svc.GetBalance(staffCtx(), key)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("9"), balance.Quantity)
}

func TestService_GetBalance_NeverMovedReadsZero(t *testing.T) {
	svc, _ := newTestService(&fakeRepo{})

	balance, err := svc.GetBalance(staffCtx(), Key{ProductID: id.New(), WarehouseID: id.New()})
	require.NoError(t, err)
	assert.True(t, balance.Quantity.IsZero())
}

func TestService_GetBalance_NoActor(t *testing.T) {
	svc, _ := newTestService(&fakeRepo{})

	_, err := svc.GetBalance(context.Background(), Key{})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestService_ListBalances_NormalizesFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(repo)

	_, err := svc.ListBalances(staffCtx(), BalanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50, repo.gotBalanceFilter.Limit)

	_, err = svc.ListBalances(staffCtx(), BalanceFilter{
		ListFilter: domain.ListFilter{Limit: 10000},
	})
	require.NoError(t, err)
	assert.Equal(t, 500, repo.gotBalanceFilter.Limit)
}

func TestService_Reconcile(t *testing.T) {
	key := Key{ProductID: id.New(), WarehouseID: id.New()}
	repo := &fakeRepo{
		balances: map[Key]entity.StockBalance{
			key: {ProductID: key.ProductID, WarehouseID: key.WarehouseID, Quantity: types.MustQuantity("7")},
		},
		ledgerSums: map[Key]types.Quantity{key: types.MustQuantity("7")},
	}
	svc, txm := newTestService(repo)

	rec, err := svc.Reconcile(staffCtx(), key)
	require.NoError(t, err)
	assert.True(t, rec.Consistent())
	// Both reads share one read-only transaction.
	assert.Equal(t, 1, txm.readOnlyCalls)

	repo.ledgerSums[key] = types.MustQuantity("6")
	rec, err = svc.Reconcile(staffCtx(), key)
	require.NoError(t, err)
	assert.False(t, rec.Consistent())
	assert.Equal(t, types.MustQuantity("7"), rec.Balance)
	assert.Equal(t, types.MustQuantity("6"), rec.LedgerSum)
}

func TestService_ListLedger_NormalizesFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(repo)

	_, err := svc.ListLedger(staffCtx(), LedgerFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50, repo.gotLedgerFilter.Limit)
}

func TestKey_Less(t *testing.T) {
	a := Key{
		ProductID:   id.MustParse("00000000-0000-0000-0000-000000000001"),
		WarehouseID: id.MustParse("00000000-0000-0000-0000-000000000002"),
	}
	b := Key{
		ProductID:   id.MustParse("00000000-0000-0000-0000-000000000001"),
		WarehouseID: id.MustParse("00000000-0000-0000-0000-000000000003"),
	}
	c := Key{
		ProductID:   id.MustParse("00000000-0000-0000-0000-000000000002"),
		WarehouseID: id.MustParse("00000000-0000-0000-0000-000000000001"),
	}

	// Product compares first, warehouse breaks ties.
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, b.Less(c))
	assert.False(t, a.Less(a))
}
