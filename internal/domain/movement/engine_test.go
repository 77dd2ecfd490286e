package movement

import (
	"context"
	"errors"
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
	"stocktrack/internal/domain/stock"
)

// fakeState is the mutable store shared by the fakes.
type fakeState struct {
	balances map[stock.Key]entity.StockBalance
	ledger   []entity.LedgerEntry
}

func (s *fakeState) clone() *fakeState {
	balances := make(map[stock.Key]entity.StockBalance, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	ledger := make([]entity.LedgerEntry, len(s.ledger))
	copy(ledger, s.ledger)
	return &fakeState{balances: balances, ledger: ledger}
}

// fakeTxManager serializes transactions with a mutex, standing in for
// row locks, and restores a snapshot on rollback.
type fakeTxManager struct {
	mu    sync.Mutex
	state *fakeState
}

func newFakeTxManager() *fakeTxManager {
	return &fakeTxManager{state: &fakeState{balances: map[stock.Key]entity.StockBalance{}}}
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(ctx); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// fakeRepo implements stock.Repository over fakeState.
type fakeRepo struct {
	m *fakeTxManager

	failAppend error
}

func (r *fakeRepo) GetBalance(_ context.Context, key stock.Key) (entity.StockBalance, error) {
	if b, ok := r.m.state.balances[key]; ok {
		return b, nil
	}
	return entity.StockBalance{ProductID: key.ProductID, WarehouseID: key.WarehouseID}, nil
}

func (r *fakeRepo) EnsureBalanceRow(_ context.Context, key stock.Key) error {
	if _, ok := r.m.state.balances[key]; !ok {
		r.m.state.balances[key] = entity.StockBalance{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
	}
	return nil
}

func (r *fakeRepo) GetBalanceForUpdate(ctx context.Context, key stock.Key) (entity.StockBalance, error) {
	return r.GetBalance(ctx, key)
}

func (r *fakeRepo) UpdateBalance(_ context.Context, balance entity.StockBalance) error {
	key := stock.Key{ProductID: balance.ProductID, WarehouseID: balance.WarehouseID}
	r.m.state.balances[key] = balance
	return nil
}

func (r *fakeRepo) AppendEntries(_ context.Context, entries []entity.LedgerEntry) error {
	if r.failAppend != nil {
		return r.failAppend
	}
	r.m.state.ledger = append(r.m.state.ledger, entries...)
	return nil
}

func (r *fakeRepo) ListBalances(_ context.Context, _ stock.BalanceFilter) (domain.ListResult[entity.StockBalance], error) {
	return domain.ListResult[entity.StockBalance]{}, nil
}

func (r *fakeRepo) ListLedger(_ context.Context, _ stock.LedgerFilter) (domain.ListResult[entity.LedgerEntry], error) {
	return domain.ListResult[entity.LedgerEntry]{}, nil
}

func (r *fakeRepo) SumLedger(_ context.Context, key stock.Key) (types.Quantity, error) {
	var sum types.Quantity
	for _, e := range r.m.state.ledger {
		if e.ProductID == key.ProductID && e.WarehouseID == key.WarehouseID {
			sum += e.QuantityChange
		}
	}
	return sum, nil
}

// fakeDoc implements Appliable.
type fakeDoc struct {
	id      id.ID
	ref     string
	applied bool
	effects []Effect
}

func (d *fakeDoc) DocumentID() id.ID      { return d.id }
func (d *fakeDoc) DocumentRef() string    { return d.ref }
func (d *fakeDoc) IsApplied() bool        { return d.applied }
func (d *fakeDoc) StockEffects() []Effect { return d.effects }

func newHarness() (*Engine, *fakeTxManager, *fakeRepo) {
	txm := newFakeTxManager()
	repo := &fakeRepo{m: txm}
	return NewEngine(txm, repo), txm, repo
}

func seedBalance(txm *fakeTxManager, key stock.Key, quantity types.Quantity) {
	txm.state.balances[key] = entity.StockBalance{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Quantity:    quantity,
	}
}

func testCtx() context.Context {
	return security.WithActor(context.Background(), security.Actor{
		UserID: "user-1", Role: security.RoleManager,
	})
}

func qty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantityFromString(s)
	require.NoError(t, err)
	return q
}

func TestEngine_Apply_Receipt(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}

	doc := &fakeDoc{
		id:  id.New(),
		ref: "REC-1",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: entity.TxTypeReceipt, Change: qty(t, "10"),
		}},
	}

	persisted := false
	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error {
		persisted = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, persisted)

	assert.Equal(t, qty(t, "10"), txm.state.balances[key].Quantity)
	require.Len(t, txm.state.ledger, 1)
	entry := txm.state.ledger[0]
	assert.Equal(t, types.Quantity(0), entry.QuantityBefore)
	assert.Equal(t, qty(t, "10"), entry.QuantityAfter)
	assert.Equal(t, "REC-1", entry.ReferenceNumber)
	assert.Equal(t, doc.id, entry.TransactionID)
	assert.Equal(t, "user-1", entry.CreatedBy)
	assert.NoError(t, entry.Validate())
}

func TestEngine_Apply_DeliveryDecrements(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "DO-1",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: entity.TxTypeDelivery, Change: qty(t, "-4"),
		}},
	}

	require.NoError(t, engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil }))

	assert.Equal(t, qty(t, "6"), txm.state.balances[key].Quantity)
	require.Len(t, txm.state.ledger, 1)
	assert.Equal(t, qty(t, "10"), txm.state.ledger[0].QuantityBefore)
	assert.Equal(t, qty(t, "6"), txm.state.ledger[0].QuantityAfter)
}

func TestEngine_Apply_InsufficientStock(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "3"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "DO-2",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: entity.TxTypeDelivery, Change: qty(t, "-5"),
		}},
	}

	persisted := false
	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error {
		persisted = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.False(t, persisted)

	// Nothing written.
	assert.Equal(t, qty(t, "3"), txm.state.balances[key].Quantity)
	assert.Empty(t, txm.state.ledger)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "5.0000", appErr.Details["requested"])
	assert.Equal(t, "3.0000", appErr.Details["available"])
}

func TestEngine_Apply_Transfer(t *testing.T) {
	engine, txm, _ := newHarness()
	product := id.New()
	src := stock.Key{ProductID: product, WarehouseID: id.New()}
	dst := stock.Key{ProductID: product, WarehouseID: id.New()}
	seedBalance(txm, src, qty(t, "8"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "TRF-1",
		effects: []Effect{
			{
				ProductID: src.ProductID, WarehouseID: src.WarehouseID,
				Type: entity.TxTypeTransferOut, Change: qty(t, "-5"),
			},
			{
				ProductID: dst.ProductID, WarehouseID: dst.WarehouseID,
				Type: entity.TxTypeTransferIn, Change: qty(t, "5"),
			},
		},
	}

	require.NoError(t, engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil }))

	assert.Equal(t, qty(t, "3"), txm.state.balances[src].Quantity)
	assert.Equal(t, qty(t, "5"), txm.state.balances[dst].Quantity)

	require.Len(t, txm.state.ledger, 2)
	assert.Equal(t, entity.TxTypeTransferOut, txm.state.ledger[0].Type)
	assert.Equal(t, entity.TxTypeTransferIn, txm.state.ledger[1].Type)
	// Both sides share the document's reference number.
	assert.Equal(t, "TRF-1", txm.state.ledger[0].ReferenceNumber)
	assert.Equal(t, "TRF-1", txm.state.ledger[1].ReferenceNumber)
}

func TestEngine_Apply_TransferInsufficientWritesNothing(t *testing.T) {
	engine, txm, _ := newHarness()
	product := id.New()
	src := stock.Key{ProductID: product, WarehouseID: id.New()}
	dst := stock.Key{ProductID: product, WarehouseID: id.New()}
	seedBalance(txm, src, qty(t, "2"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "TRF-2",
		effects: []Effect{
			{
				ProductID: src.ProductID, WarehouseID: src.WarehouseID,
				Type: entity.TxTypeTransferOut, Change: qty(t, "-5"),
			},
			{
				ProductID: dst.ProductID, WarehouseID: dst.WarehouseID,
				Type: entity.TxTypeTransferIn, Change: qty(t, "5"),
			},
		},
	}

	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, qty(t, "2"), txm.state.balances[src].Quantity)
	assert.Equal(t, types.Quantity(0), txm.state.balances[dst].Quantity)
	assert.Empty(t, txm.state.ledger)
}

func TestEngine_Apply_AdjustmentAbsolute(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))

	// Counted 7 against a recorded 10: delta -3, balance pinned to 7.
	doc := &fakeDoc{
		id:  id.New(),
		ref: "ADJ-1",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type:     entity.TxTypeAdjustment,
			Change:   qty(t, "-3"),
			Absolute: true,
			Before:   qty(t, "10"),
		}},
	}

	require.NoError(t, engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil }))

	assert.Equal(t, qty(t, "7"), txm.state.balances[key].Quantity)
	require.Len(t, txm.state.ledger, 1)
	assert.Equal(t, qty(t, "10"), txm.state.ledger[0].QuantityBefore)
	assert.Equal(t, qty(t, "7"), txm.state.ledger[0].QuantityAfter)
}

func TestEngine_Apply_AdjustmentStaleSnapshotStillPins(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	// Balance moved to 12 after the count was drafted against 10.
	seedBalance(txm, key, qty(t, "12"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "ADJ-2",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type:     entity.TxTypeAdjustment,
			Change:   qty(t, "-3"),
			Absolute: true,
			Before:   qty(t, "10"),
		}},
	}

	require.NoError(t, engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil }))

	// The physical count wins over the drifted balance.
	assert.Equal(t, qty(t, "7"), txm.state.balances[key].Quantity)
}

func TestEngine_Apply_MultiLineSeesEarlierLines(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))

	// Two lines of 6 against 10: line one passes, line two must fail
	// against the running balance of 4, not the original 10.
	doc := &fakeDoc{
		id:  id.New(),
		ref: "DO-3",
		effects: []Effect{
			{
				ProductID: key.ProductID, WarehouseID: key.WarehouseID,
				Type: entity.TxTypeDelivery, Change: qty(t, "-6"),
			},
			{
				ProductID: key.ProductID, WarehouseID: key.WarehouseID,
				Type: entity.TxTypeDelivery, Change: qty(t, "-6"),
			},
		},
	}

	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, qty(t, "10"), txm.state.balances[key].Quantity)
	assert.Empty(t, txm.state.ledger)
}

func TestEngine_Apply_AlreadyApplied(t *testing.T) {
	engine, _, _ := newHarness()

	doc := &fakeDoc{id: id.New(), ref: "REC-9", applied: true}

	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error {
		t.Fatal("persist must not run for an applied document")
		return nil
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentApplied, appErr.Code)
}

func TestEngine_Apply_PersistFailureRollsBack(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))

	doc := &fakeDoc{
		id:  id.New(),
		ref: "DO-4",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: entity.TxTypeDelivery, Change: qty(t, "-4"),
		}},
	}

	boom := errors.New("status write failed")
	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	// Ledger and balance writes rolled back with the document write.
	assert.Equal(t, qty(t, "10"), txm.state.balances[key].Quantity)
	assert.Empty(t, txm.state.ledger)
}

func TestEngine_Apply_AppendFailureRollsBack(t *testing.T) {
	engine, txm, repo := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))
	repo.failAppend = errors.New("insert failed")

	doc := &fakeDoc{
		id:  id.New(),
		ref: "DO-5",
		effects: []Effect{{
			ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: entity.TxTypeDelivery, Change: qty(t, "-4"),
		}},
	}

	err := engine.Apply(testCtx(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.Equal(t, qty(t, "10"), txm.state.balances[key].Quantity)
}

func TestEngine_Apply_NoEffectsStillPersists(t *testing.T) {
	engine, txm, _ := newHarness()

	doc := &fakeDoc{id: id.New(), ref: "DO-6"}

	persisted := false
	require.NoError(t, engine.Apply(testCtx(), doc, func(ctx context.Context) error {
		persisted = true
		return nil
	}))
	assert.True(t, persisted)
	assert.Empty(t, txm.state.ledger)
}

func TestEngine_Apply_ConcurrentDeliveries(t *testing.T) {
	engine, txm, _ := newHarness()
	key := stock.Key{ProductID: id.New(), WarehouseID: id.New()}
	seedBalance(txm, key, qty(t, "10"))

	// Two deliveries of 6 against a balance of 10: exactly one may pass.
	makeDoc := func(ref string) *fakeDoc {
		return &fakeDoc{
			id:  id.New(),
			ref: ref,
			effects: []Effect{{
				ProductID: key.ProductID, WarehouseID: key.WarehouseID,
				Type: entity.TxTypeDelivery, Change: qty(t, "-6"),
			}},
		}
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, ref := range []string{"DO-A", "DO-B"} {
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			results <- engine.Apply(testCtx(), makeDoc(ref), func(ctx context.Context) error { return nil })
		}(ref)
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperror.IsInsufficientStock(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, qty(t, "4"), txm.state.balances[key].Quantity)
	assert.Len(t, txm.state.ledger, 1)
}
