package receipt

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
	docs     map[id.ID]*Receipt
}

func newMemStore() *memStore {
	return &memStore{
		balances: map[stock.Key]entity.StockBalance{},
		docs:     map[id.ID]*Receipt{},
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
	docs := make(map[id.ID]*Receipt, len(s.docs))
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

type memReceiptRepo struct{ s *memStore }

func (r *memReceiptRepo) Create(_ context.Context, doc *Receipt) error {
	copied := *doc
	r.s.docs[doc.ID] = &copied
	return nil
}

func (r *memReceiptRepo) GetByID(_ context.Context, docID id.ID) (*Receipt, error) {
	doc, ok := r.s.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("receipt", docID)
	}
	copied := *doc
	return &copied, nil
}

func (r *memReceiptRepo) GetByNumber(_ context.Context, number string) (*Receipt, error) {
	for _, doc := range r.s.docs {
		if doc.Number == number {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("receipt", number)
}

func (r *memReceiptRepo) Update(_ context.Context, doc *Receipt) error {
	if _, ok := r.s.docs[doc.ID]; !ok {
		return apperror.NewNotFound("receipt", doc.ID)
	}
	copied := *doc
	r.s.docs[doc.ID] = &copied
	return nil
}

func (r *memReceiptRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Receipt], error) {
	return domain.ListResult[*Receipt]{}, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	stockRepo := &memStockRepo{s: store}
	engine := movement.NewEngine(store, stockRepo)
	svc := NewService(&memReceiptRepo{s: store}, engine, docflow.NewMachine(), refnum.NewMock())
	return svc, store
}

func managerCtx() context.Context {
	return security.WithActor(context.Background(), security.Actor{
		UserID: "mgr-1", Role: security.RoleManager,
	})
}

func staffCtx() context.Context {
	return security.WithActor(context.Background(), security.Actor{
		UserID: "stf-1", Role: security.RoleStaff,
	})
}

func TestService_Create_Draft(t *testing.T) {
	svc, store := newTestService()

	doc, err := svc.Create(staffCtx(), CreateInput{
		WarehouseID:  id.New(),
		SupplierName: "Supplies Inc",
		Items: []ItemInput{
			{ProductID: id.New(), Quantity: types.MustQuantity("10"), UnitPrice: types.MustMoney("2.50")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.Equal(t, "REC-1", doc.Number)
	assert.Contains(t, store.docs, doc.ID)
	// Drafts add no stock.
	assert.Empty(t, store.ledger)
	assert.Empty(t, store.balances)
}

func TestService_GetByNumber(t *testing.T) {
	svc, _ := newTestService()

	doc, err := svc.Create(staffCtx(), CreateInput{
		WarehouseID: id.New(),
		Items: []ItemInput{
			{ProductID: id.New(), Quantity: types.MustQuantity("1"), UnitPrice: types.MustMoney("1")},
		},
	})
	require.NoError(t, err)

	found, err := svc.GetByNumber(staffCtx(), doc.Number)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = svc.GetByNumber(staffCtx(), "REC-missing")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Create_ValidateNow(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()

	doc, err := svc.Create(managerCtx(), CreateInput{
		WarehouseID: warehouse,
		Items: []ItemInput{
			{ProductID: product, Quantity: types.MustQuantity("10"), UnitPrice: types.MustMoney("2.50")},
		},
		ValidateNow: true,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDone, doc.Status)

	key := stock.Key{ProductID: product, WarehouseID: warehouse}
	assert.Equal(t, types.MustQuantity("10"), store.balances[key].Quantity)

	require.Len(t, store.ledger, 1)
	entry := store.ledger[0]
	assert.Equal(t, entity.TxTypeReceipt, entry.Type)
	assert.Equal(t, types.MustQuantity("0"), entry.QuantityBefore)
	assert.Equal(t, types.MustQuantity("10"), entry.QuantityAfter)

	// The stored copy is the applied document, not a draft.
	assert.Equal(t, entity.StatusDone, store.docs[doc.ID].Status)
}

func TestService_Create_ValidateNowNeedsPermission(t *testing.T) {
	svc, store := newTestService()

	// Staff may create receipts but not validate them.
	_, err := svc.Create(staffCtx(), CreateInput{
		WarehouseID: id.New(),
		Items: []ItemInput{
			{ProductID: id.New(), Quantity: types.MustQuantity("1")},
		},
		ValidateNow: true,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	// Nothing persisted at all.
	assert.Empty(t, store.docs)
	assert.Empty(t, store.ledger)
}

func TestService_SetStatus_ValidateAddsStock(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()

	doc, err := svc.Create(staffCtx(), CreateInput{
		WarehouseID: warehouse,
		Items: []ItemInput{
			{ProductID: product, Quantity: types.MustQuantity("3.5")},
		},
	})
	require.NoError(t, err)

	doc, err = svc.SetStatus(managerCtx(), doc.ID, entity.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, doc.Status)

	key := stock.Key{ProductID: product, WarehouseID: warehouse}
	assert.Equal(t, types.MustQuantity("3.5"), store.balances[key].Quantity)
}

func TestService_SetStatus_SecondValidateRejected(t *testing.T) {
	svc, store := newTestService()
	product := id.New()
	warehouse := id.New()

	doc, err := svc.Create(managerCtx(), CreateInput{
		WarehouseID: warehouse,
		Items:       []ItemInput{{ProductID: product, Quantity: types.MustQuantity("5")}},
		ValidateNow: true,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(managerCtx(), doc.ID, entity.StatusDone)
	require.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err))

	// Applied exactly once.
	key := stock.Key{ProductID: product, WarehouseID: warehouse}
	assert.Equal(t, types.MustQuantity("5"), store.balances[key].Quantity)
	assert.Len(t, store.ledger, 1)
}
