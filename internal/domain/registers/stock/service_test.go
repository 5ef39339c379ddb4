package stock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/registers/stock"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...stock.Option) (*stock.Service, *domaintest.StockRepo) {
	t.Helper()
	repo := domaintest.NewStockRepo()
	opts = append([]stock.Option{stock.WithClock(func() time.Time { return now })}, opts...)
	return stock.NewService(repo, nil, opts...), repo
}

func expiry(months int) *time.Time {
	d := now.AddDate(0, months, 0)
	return &d
}

func receipt(doc, item, loc id.ID, batch string, qty int64) entity.StockMovement {
	return entity.StockMovement{
		MovementBase: entity.NewMovementBase(doc, "goods_receipt", 1, now, entity.RecordTypeReceipt),
		ItemID:       item,
		ItemName:     "Paracetamol 500mg",
		BatchNo:      batch,
		LocationID:   loc,
		Quantity:     qty,
		Rate:         decimal.NewFromInt(2),
		MRP:          decimal.NewFromInt(5),
		ExpiryDate:   expiry(12),
	}
}

func TestRecordMovements_ReceiptCreatesBatch(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{receipt(id.New(), item, loc, "B1", 100)})
	require.NoError(t, err)

	key := stock.BatchKey{ItemID: item, BatchNo: "B1", LocationID: loc}
	assert.Equal(t, int64(100), repo.Quantity(key))

	b, err := svc.GetBatch(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, b.MRP.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, b.ExpiryDate)
	assert.Len(t, repo.AllMovements(), 1)
}

func TestRecordMovements_ExpenseChecksAvailability(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "Amoxicillin", BatchNo: "A7", LocationID: loc, Quantity: 4})

	m := receipt(id.New(), item, loc, "A7", 5)
	m.RecordType = entity.RecordTypeExpense

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{m})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "Amoxicillin: only 4 available")
	assert.Equal(t, int64(4), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "A7", LocationID: loc}))
	assert.Empty(t, repo.AllMovements())
}

func TestRecordMovements_ExpenseFromMissingBatch(t *testing.T) {
	svc, _ := newService(t)
	m := receipt(id.New(), id.New(), id.New(), "NOPE", 1)
	m.RecordType = entity.RecordTypeExpense

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{m})
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestRecordMovements_Validation(t *testing.T) {
	svc, _ := newService(t)
	m := receipt(id.New(), id.New(), id.New(), "B1", 0)

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{m})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity must be positive")

	m.Quantity = 1
	m.RecorderID = id.Nil()
	err = svc.RecordMovements(context.Background(), []entity.StockMovement{m})
	assert.Contains(t, err.Error(), "recorder is required")
}

func TestRecordMovements_SameBatchTwiceInOneDocument(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "ORS", BatchNo: "O1", LocationID: loc, Quantity: 5})

	doc := id.New()
	a := receipt(doc, item, loc, "O1", 3)
	a.RecordType = entity.RecordTypeExpense
	b := a
	b.LineID = id.New()

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{a, b})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(5), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "O1", LocationID: loc}))
}

func TestReverseMovements(t *testing.T) {
	svc, repo := newService(t)
	item, loc, doc := id.New(), id.New(), id.New()
	ctx := context.Background()

	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{receipt(doc, item, loc, "B1", 10)}))
	require.NoError(t, svc.ReverseMovements(ctx, doc, 2))

	assert.Equal(t, int64(0), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "B1", LocationID: loc}))
	assert.Empty(t, repo.AllMovements())
}

func TestReverseMovements_KeepsNewerVersions(t *testing.T) {
	svc, repo := newService(t)
	item, loc, doc := id.New(), id.New(), id.New()
	ctx := context.Background()

	v2 := receipt(doc, item, loc, "B1", 7)
	v2.RecorderVersion = 2
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{receipt(doc, item, loc, "B1", 10), v2}))

	require.NoError(t, svc.ReverseMovements(ctx, doc, 2))
	assert.Equal(t, int64(7), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "B1", LocationID: loc}))
	assert.Len(t, repo.AllMovements(), 1)
}

func TestAvailableBatches_FEFOAndCache(t *testing.T) {
	cache := &memCache{data: map[id.ID][]*stock.Batch{}}
	svc, repo := newService(t, stock.WithCache(cache))
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "LATE", LocationID: loc, Quantity: 1, ExpiryDate: expiry(6)})
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "SOON", LocationID: loc, Quantity: 1, ExpiryDate: expiry(1)})
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "GONE", LocationID: loc, Quantity: 1, ExpiryDate: expiry(-1)})
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "EMPTY", LocationID: loc, Quantity: 0, ExpiryDate: expiry(2)})

	batches, err := svc.AvailableBatches(context.Background(), item)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "SOON", batches[0].BatchNo)
	assert.Equal(t, "LATE", batches[1].BatchNo)
	assert.Len(t, cache.data[item], 2)

	// a receipt for the item drops the cached entry
	require.NoError(t, svc.RecordMovements(context.Background(), []entity.StockMovement{receipt(id.New(), item, loc, "NEW", 1)}))
	_, cached := cache.data[item]
	assert.False(t, cached)
}

func TestRecordMovements_InvalidatesCacheAfterCommit(t *testing.T) {
	cache := &memCache{data: map[id.ID][]*stock.Batch{}}
	svc, repo := newService(t, stock.WithCache(cache))
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "B1", LocationID: loc, Quantity: 5, ExpiryDate: expiry(3)})
	ctx := context.Background()

	_, err := svc.AvailableBatches(ctx, item)
	require.NoError(t, err)
	require.Contains(t, cache.data, item)

	err = tx.Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := svc.RecordMovements(ctx, []entity.StockMovement{receipt(id.New(), item, loc, "B1", 2)}); err != nil {
			return err
		}
		assert.Contains(t, cache.data, item, "kept until commit")
		return nil
	})
	require.NoError(t, err)
	assert.NotContains(t, cache.data, item)

	_, err = svc.AvailableBatches(ctx, item)
	require.NoError(t, err)
	err = tx.Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := svc.RecordMovements(ctx, []entity.StockMovement{receipt(id.New(), item, loc, "B1", 1)}); err != nil {
			return err
		}
		return errors.New("rolled back")
	})
	require.Error(t, err)
	assert.Contains(t, cache.data, item, "nothing committed, nothing dropped")
}

func TestAdjust(t *testing.T) {
	trail := &audit.Memory{}
	svc, repo := newService(t, stock.WithAudit(trail))
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "Cetirizine", BatchNo: "C1", LocationID: loc, Quantity: 10})

	b, err := svc.Adjust(context.Background(), stock.AdjustRequest{
		ItemID: item, BatchNo: "C1", LocationID: loc, Delta: -3, Reason: "damaged strip",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.Quantity)

	require.Len(t, trail.Entries, 1)
	assert.Equal(t, audit.ActionStockAdjust, trail.Entries[0].Action)
	assert.Equal(t, int64(10), trail.Entries[0].Changes["before"])
	assert.Equal(t, int64(7), trail.Entries[0].Changes["after"])

	movements := repo.AllMovements()
	require.Len(t, movements, 1)
	assert.Equal(t, stock.RecorderAdjustment, movements[0].RecorderType)
	assert.Equal(t, entity.RecordTypeExpense, movements[0].RecordType)
}

func TestAdjust_BelowZero(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "Cetirizine", BatchNo: "C1", LocationID: loc, Quantity: 2})

	_, err := svc.Adjust(context.Background(), stock.AdjustRequest{
		ItemID: item, BatchNo: "C1", LocationID: loc, Delta: -3, Reason: "count",
	})
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestAdjust_UnknownBatch(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Adjust(context.Background(), stock.AdjustRequest{
		ItemID: id.New(), BatchNo: "X", LocationID: id.New(), Delta: 1, Reason: "count",
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdjust_LockHeld(t *testing.T) {
	locker := lock.NewLocal()
	svc, repo := newService(t, stock.WithLocker(locker))
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "C1", LocationID: loc, Quantity: 2})

	key := stock.BatchKey{ItemID: item, BatchNo: "C1", LocationID: loc}
	held, err := locker.Obtain(context.Background(), lock.Key("batch", key), time.Second)
	require.NoError(t, err)
	defer held.Release(context.Background())

	_, err = svc.Adjust(context.Background(), stock.AdjustRequest{
		ItemID: item, BatchNo: "C1", LocationID: loc, Delta: 1, Reason: "count",
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestAddBatchStock(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()

	b, err := svc.AddBatchStock(context.Background(), stock.AddBatchRequest{
		ItemID: item, ItemName: "Vitamin C", BatchNo: "V1", LocationID: loc,
		ExpiryDate: expiry(3), Quantity: 40, UnitCost: decimal.NewFromInt(1), MRP: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), b.Quantity)
	assert.Equal(t, stock.RecorderOpening, repo.AllMovements()[0].RecorderType)

	_, err = svc.AddBatchStock(context.Background(), stock.AddBatchRequest{ItemID: item, LocationID: loc, Quantity: 1})
	assert.Error(t, err)
}

func TestLedger_RunningBalance(t *testing.T) {
	svc, _ := newService(t)
	item, loc := id.New(), id.New()
	ctx := context.Background()

	old := receipt(id.New(), item, loc, "B1", 10)
	old.Period = now.AddDate(0, -1, 0)
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{old}))

	sale := receipt(id.New(), item, loc, "B1", 4)
	sale.RecordType = entity.RecordTypeExpense
	require.NoError(t, svc.RecordMovements(ctx, []entity.StockMovement{sale}))

	from := now.AddDate(0, 0, -1)
	entries, err := svc.Ledger(ctx, stock.LedgerFilter{ItemID: &item, From: &from})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].Out)
	assert.Equal(t, int64(6), entries[0].Balance)
}

func TestSupplierLedger(t *testing.T) {
	svc, repo := newService(t)
	vendor := id.New()
	repo.AddSupplierEntry(vendor, stock.SupplierEntry{Date: now.AddDate(0, -2, 0), DocumentType: "goods_receipt", Credit: decimal.NewFromInt(500)})
	repo.AddSupplierEntry(vendor, stock.SupplierEntry{Date: now.AddDate(0, 0, -3), DocumentType: "goods_receipt", Credit: decimal.NewFromInt(200)})
	repo.AddSupplierEntry(vendor, stock.SupplierEntry{Date: now.AddDate(0, 0, -1), DocumentType: "vendor_return", Debit: decimal.NewFromInt(50)})

	l, err := svc.SupplierLedger(context.Background(), vendor, now.AddDate(0, -1, 0), now)
	require.NoError(t, err)
	assert.True(t, l.OpeningBalance.Equal(decimal.NewFromInt(500)))
	require.Len(t, l.Entries, 2)
	assert.True(t, l.ClosingBalance.Equal(decimal.NewFromInt(650)))

	_, err = svc.SupplierLedger(context.Background(), vendor, now, now.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestExpiringBatches(t *testing.T) {
	svc, repo := newService(t)
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "SOON", LocationID: loc, Quantity: 3, ExpiryDate: expiry(1)})
	repo.PutBatch(&stock.Batch{ItemID: item, BatchNo: "LATER", LocationID: loc, Quantity: 3, ExpiryDate: expiry(12)})

	batches, err := svc.ExpiringBatches(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "SOON", batches[0].BatchNo)
}

type memCache struct {
	data map[id.ID][]*stock.Batch
}

func (c *memCache) Get(_ context.Context, itemID id.ID) ([]*stock.Batch, bool, error) {
	b, ok := c.data[itemID]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, itemID id.ID, batches []*stock.Batch) error {
	c.data[itemID] = batches
	return nil
}

func (c *memCache) Invalidate(_ context.Context, itemIDs ...id.ID) error {
	for _, i := range itemIDs {
		delete(c.data, i)
	}
	return nil
}
