package adjustment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain"
	"stocktrack/internal/domain/docflow"
	"stocktrack/internal/domain/movement"
	"stocktrack/internal/domain/stock"
	"stocktrack/pkg/refnum"
)

// memStore backs the fake repositories with mutex-serialized transactions.
type memStore struct {
	mu       sync.Mutex
	balances map[stock.Key]entity.StockBalance
	ledger   []entity.LedgerEntry
	docs     map[id.ID]*Adjustment
}

func newMemStore() *memStore {
	return &memStore{
		balances: map[stock.Key]entity.StockBalance{},
		docs:     map[id.ID]*Adjustment{},
	}
}

func (s *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances := make(map[stock.Key]entity.StockBalance, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	ledger := make([]entity.LedgerEntry, len(s.ledger))
	copy(ledger, s.ledger)
	docs := make(map[id.ID]*Adjustment, len(s.docs))
	for k, v := range s.docs {
		copied := *v
		docs[k] = &copied
	}

	if err := fn(ctx); err != nil {
		s.balances = balances
		s.ledger = ledger
		s.docs = docs
		return err
	}
	return nil
}

type memStockRepo struct{ s *memStore }

func (r *memStockRepo) GetBalance(_ context.Context, key stock.Key) (entity.StockBalance, error) {
	if b, ok := r.s.balances[key]; ok {
		return b, nil
	}
	return entity.StockBalance{ProductID: key.ProductID, WarehouseID: key.WarehouseID}, nil
}

func (r *memStockRepo) EnsureBalanceRow(_ context.Context, key stock.Key) error {
	if _, ok := r.s.balances[key]; !ok {
		r.s.balances[key] = entity.StockBalance{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
	}
	return nil
}

func (r *memStockRepo) GetBalanceForUpdate(ctx context.Context, key stock.Key) (entity.StockBalance, error) {
	return r.GetBalance(ctx, key)
}

func (r *memStockRepo) UpdateBalance(_ context.Context, balance entity.StockBalance) error {
	key := stock.Key{ProductID: balance.ProductID, WarehouseID: balance.WarehouseID}
	r.s.balances[key] = balance
	return nil
}

func (r *memStockRepo) AppendEntries(_ context.Context, entries []entity.LedgerEntry) error {
	r.s.ledger = append(r.s.ledger, entries...)
	return nil
}

func (r *memStockRepo) ListBalances(_ context.Context, _ stock.BalanceFilter) (domain.ListResult[entity.StockBalance], error) {
	return domain.ListResult[entity.StockBalance]{}, nil
}

func (r *memStockRepo) ListLedger(_ context.Context, _ stock.LedgerFilter) (domain.ListResult[entity.LedgerEntry], error) {
	return domain.ListResult[entity.LedgerEntry]{}, nil
}

func (r *memStockRepo) SumLedger(_ context.Context, key stock.Key) (types.Quantity, error) {
	var sum types.Quantity
	for _, e := range r.s.ledger {
		if e.ProductID == key.ProductID && e.WarehouseID == key.WarehouseID {
			sum += e.QuantityChange
		}
	}
	return sum, nil
}

type memAdjustmentRepo struct{ s *memStore }

func (r *memAdjustmentRepo) Create(_ context.Context, doc *Adjustment) error {
	copied := *doc
	r.s.docs[doc.ID] = &copied
	return nil
}

func (r *memAdjustmentRepo) GetByID(_ context.Context, docID id.ID) (*Adjustment, error) {
	doc, ok := r.s.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("adjustment", docID)
	}
	copied := *doc
	return &copied, nil
}

func (r *memAdjustmentRepo) GetByNumber(_ context.Context, number string) (*Adjustment, error) {
	for _, doc := range r.s.docs {
		if doc.Number == number {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("adjustment", number)
}

func (r *memAdjustmentRepo) Update(_ context.Context, doc *Adjustment) error {
	if _, ok := r.s.docs[doc.ID]; !ok {
		return apperror.NewNotFound("adjustment", doc.ID)
	}
	copied := *doc
	r.s.docs[doc.ID] = &copied
	return nil
}

func (r *memAdjustmentRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Adjustment], error) {
	return domain.ListResult[*Adjustment]{}, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	stockRepo := &memStockRepo{s: store}
	engine := movement.NewEngine(store, stockRepo)
	svc := NewService(&memAdjustmentRepo{s: store}, stockRepo, engine, docflow.NewMachine(), refnum.NewMock())
	return svc, store
}

func managerCtx() context.Context {
	return security.WithActor(context.Background(), security.Actor{
		UserID: "mgr-1", Role: security.RoleManager,
	})
}

func seedStock(store *memStore, key stock.Key, quantity types.Quantity) {
	store.balances[key] = entity.StockBalance{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Quantity:    quantity,
	}
}

func TestService_Create_SnapshotsRecordedQuantity(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()
	seedStock(store, stock.Key{ProductID: product, WarehouseID: warehouse}, types.MustQuantity("12"))

	doc, err := svc.Create(managerCtx(), CreateInput{
		ProductID:        product,
		WarehouseID:      warehouse,
		PhysicalQuantity: types.MustQuantity("10"),
		Reason:           "cycle count",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.Equal(t, types.MustQuantity("12"), doc.RecordedQuantity)
	assert.Equal(t, types.MustQuantity("-2"), doc.Delta())
	assert.Empty(t, store.ledger)
}

func TestService_Validate_PinsBalanceToPhysicalCount(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()
	key := stock.Key{ProductID: product, WarehouseID: warehouse}
	seedStock(store, key, types.MustQuantity("12"))

	doc, err := svc.Create(managerCtx(), CreateInput{
		ProductID:        product,
		WarehouseID:      warehouse,
		PhysicalQuantity: types.MustQuantity("10"),
	})
	require.NoError(t, err)

	// The balance drifts between count and validation.
	seedStock(store, key, types.MustQuantity("15"))

	doc, err = svc.SetStatus(managerCtx(), doc.ID, entity.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, doc.Status)

	// Balance lands on the physical count, not recorded+delta over the
	// drifted value.
	assert.Equal(t, types.MustQuantity("10"), store.balances[key].Quantity)

	require.Len(t, store.ledger, 1)
	entry := store.ledger[0]
	assert.Equal(t, entity.TxTypeAdjustment, entry.Type)
	assert.Equal(t, types.MustQuantity("12"), entry.QuantityBefore)
	assert.Equal(t, types.MustQuantity("-2"), entry.QuantityChange)
	assert.Equal(t, types.MustQuantity("10"), entry.QuantityAfter)
}

func TestService_Create_ValidateNowFromZero(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()
	key := stock.Key{ProductID: product, WarehouseID: warehouse}

	doc, err := svc.Create(managerCtx(), CreateInput{
		ProductID:        product,
		WarehouseID:      warehouse,
		PhysicalQuantity: types.MustQuantity("7"),
		ValidateNow:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDone, doc.Status)
	assert.Equal(t, types.MustQuantity("0"), doc.RecordedQuantity)
	assert.Equal(t, types.MustQuantity("7"), store.balances[key].Quantity)
}

func TestService_Create_NegativePhysicalRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(managerCtx(), CreateInput{
		ProductID:        id.New(),
		WarehouseID:      id.New(),
		PhysicalQuantity: types.MustQuantity("-1"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestService_Create_StaffForbidden(t *testing.T) {
	svc, _ := newTestService()
	ctx := security.WithActor(context.Background(), security.Actor{
		UserID: "stf-1", Role: security.RoleStaff,
	})

	_, err := svc.Create(ctx, CreateInput{
		ProductID:        id.New(),
		WarehouseID:      id.New(),
		PhysicalQuantity: types.MustQuantity("5"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}
