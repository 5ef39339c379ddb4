package goods_receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/goods_receipt"
	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
)

type fixture struct {
	svc      *goods_receipt.Service
	purchase *purchase.Service
	stock    *domaintest.StockRepo
	repo     *domaintest.DocumentRepo[*goods_receipt.GoodsReceipt]
}

func newFixture() fixture {
	gen := &numerator.MockGenerator{}
	f := fixture{
		stock: domaintest.NewStockRepo(),
		repo:  domaintest.NewDocumentRepo[*goods_receipt.GoodsReceipt](),
	}
	f.purchase = purchase.NewService(
		domaintest.NewDocumentRepo[*purchase.Request](),
		domaintest.NewDocumentRepo[*purchase.Order](),
		gen, nil,
	)
	engine := posting.NewEngine(stock.NewService(f.stock, nil), nil)
	f.svc = goods_receipt.NewService(f.repo, engine, gen, nil, f.purchase)
	return f
}

func inYears(n int) *time.Time {
	d := time.Now().AddDate(n, 0, 0)
	return &d
}

func receiptLine(item id.ID, batch string, qty int64) documents.Line {
	return documents.Line{
		ItemID:     item,
		ItemName:   "Paracetamol 500mg",
		BatchNo:    batch,
		ExpiryDate: inYears(2),
		Quantity:   qty,
		Rate:       decimal.NewFromInt(2),
		TaxRate:    decimal.NewFromInt(12),
		MRP:        decimal.NewFromInt(5),
	}
}

func TestCreate_OpensBatches(t *testing.T) {
	f := newFixture()
	item, loc := id.New(), id.New()
	doc := goods_receipt.NewGoodsReceipt(id.New(), loc)
	doc.Lines = documents.Lines{receiptLine(item, "B12", 100), receiptLine(item, "B13", 50)}

	require.NoError(t, f.svc.Create(context.Background(), doc))

	assert.Contains(t, doc.Number, "GRN-")
	assert.True(t, doc.Posted)
	assert.Equal(t, 1, doc.PostedVersion)
	assert.Equal(t, "336.00", doc.Total.StringFixed(2))

	assert.Equal(t, int64(100), f.stock.Quantity(stock.BatchKey{ItemID: item, BatchNo: "B12", LocationID: loc}))
	assert.Equal(t, int64(50), f.stock.Quantity(stock.BatchKey{ItemID: item, BatchNo: "B13", LocationID: loc}))

	movements := f.stock.AllMovements()
	require.Len(t, movements, 2)
	assert.Equal(t, goods_receipt.DocumentType, movements[0].RecorderType)
	assert.Equal(t, doc.Number, movements[0].RecorderNumber)
	assert.Equal(t, entity.RecordTypeReceipt, movements[0].RecordType)
}

func TestCreate_RequiresBatchAndExpiry(t *testing.T) {
	f := newFixture()
	doc := goods_receipt.NewGoodsReceipt(id.New(), id.New())
	line := receiptLine(id.New(), "", 10)
	doc.Lines = documents.Lines{line}

	err := f.svc.Create(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch number is required")

	line.BatchNo = "B1"
	line.ExpiryDate = nil
	doc.Lines = documents.Lines{line}
	err = f.svc.Create(context.Background(), doc)
	assert.Contains(t, err.Error(), "expiry date is required")

	past := time.Now().AddDate(0, -1, 0)
	line.ExpiryDate = &past
	doc.Lines = documents.Lines{line}
	err = f.svc.Create(context.Background(), doc)
	assert.Contains(t, err.Error(), "already expired")

	assert.Empty(t, f.stock.AllMovements())
	assert.Equal(t, 0, f.repo.Len())
}

func TestCreate_PaidAmountBounds(t *testing.T) {
	f := newFixture()
	doc := goods_receipt.NewGoodsReceipt(id.New(), id.New())
	doc.Lines = documents.Lines{receiptLine(id.New(), "B1", 1)}
	doc.PaidAmount = decimal.NewFromInt(1000)

	err := f.svc.Create(context.Background(), doc)
	assert.Contains(t, err.Error(), "paid amount exceeds")
}

func TestCreate_ClosesPurchaseOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendor, loc, item := id.New(), id.New(), id.New()

	po := purchase.NewOrder(vendor, loc)
	po.Lines = documents.Lines{{ItemID: item, ItemName: "Paracetamol 500mg", Quantity: 100, Rate: decimal.NewFromInt(2)}}
	require.NoError(t, f.purchase.CreateOrder(ctx, po))
	_, err := f.purchase.ApproveOrder(ctx, po.ID)
	require.NoError(t, err)

	doc := goods_receipt.NewGoodsReceipt(vendor, loc)
	doc.PurchaseOrderID = &po.ID
	doc.Lines = documents.Lines{receiptLine(item, "B1", 100)}
	require.NoError(t, f.svc.Create(ctx, doc))

	got, err := f.purchase.GetOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, got.Status)
}

func TestCreate_PurchaseOrderOfAnotherVendor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	loc := id.New()

	po := purchase.NewOrder(id.New(), loc)
	po.Lines = documents.Lines{{ItemID: id.New(), ItemName: "ORS", Quantity: 1}}
	require.NoError(t, f.purchase.CreateOrder(ctx, po))
	_, err := f.purchase.ApproveOrder(ctx, po.ID)
	require.NoError(t, err)

	doc := goods_receipt.NewGoodsReceipt(id.New(), loc)
	doc.PurchaseOrderID = &po.ID
	doc.Lines = documents.Lines{receiptLine(id.New(), "B1", 1)}

	err = f.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another vendor")
	assert.False(t, doc.Posted)
	assert.Equal(t, 0, doc.PostedVersion)
}

func TestCancel_FailsWhenStockWasIssued(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item, loc := id.New(), id.New()
	doc := goods_receipt.NewGoodsReceipt(id.New(), loc)
	doc.Lines = documents.Lines{receiptLine(item, "B1", 10)}
	require.NoError(t, f.svc.Create(ctx, doc))

	key := stock.BatchKey{ItemID: item, BatchNo: "B1", LocationID: loc}
	b, err := f.stock.GetBatchForUpdate(ctx, key)
	require.NoError(t, err)
	b.Quantity = 4
	require.NoError(t, f.stock.SaveBatch(ctx, b))

	_, err = f.svc.Cancel(ctx, doc.ID)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item, loc := id.New(), id.New()
	doc := goods_receipt.NewGoodsReceipt(id.New(), loc)
	doc.Lines = documents.Lines{receiptLine(item, "B1", 10)}
	require.NoError(t, f.svc.Create(ctx, doc))

	got, err := f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.Posted)
	assert.Equal(t, int64(0), f.stock.Quantity(stock.BatchKey{ItemID: item, BatchNo: "B1", LocationID: loc}))
	assert.Empty(t, f.stock.AllMovements())
}
