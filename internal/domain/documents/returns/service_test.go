package returns_test

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
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/documents/returns"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
)

type fixture struct {
	svc      *returns.Service
	invoices *invoice.Service
	stock    *domaintest.StockRepo
	item     id.ID
	loc      id.ID
}

func newFixture() *fixture {
	gen := &numerator.MockGenerator{}
	f := &fixture{stock: domaintest.NewStockRepo(), item: id.New(), loc: id.New()}
	stockSvc := stock.NewService(f.stock, nil)
	engine := posting.NewEngine(stockSvc, nil)
	f.invoices = invoice.NewService(
		domaintest.NewDocumentRepo[*invoice.Invoice](), domaintest.NewAdjustmentRepo(),
		engine, stockSvc, gen, nil,
	)
	f.svc = returns.NewService(domaintest.NewReturnRepo(), engine, gen, nil, f.invoices)

	expiry := time.Now().AddDate(1, 0, 0)
	f.stock.PutBatch(&stock.Batch{
		ItemID: f.item, ItemName: "Amoxicillin 250mg", BatchNo: "A1", LocationID: f.loc,
		Quantity: 10, ExpiryDate: &expiry, MRP: decimal.NewFromInt(8),
	})
	return f
}

func (f *fixture) key() stock.BatchKey {
	return stock.BatchKey{ItemID: f.item, BatchNo: "A1", LocationID: f.loc}
}

func (f *fixture) sell(t *testing.T, qty int64) *invoice.Invoice {
	t.Helper()
	inv := invoice.NewInvoice(f.loc)
	inv.CustomerName = "Walk-in"
	inv.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: qty, Rate: decimal.NewFromInt(8), TaxRate: decimal.NewFromInt(5)}}
	require.NoError(t, f.invoices.Create(context.Background(), inv))
	return inv
}

func TestCustomerReturn(t *testing.T) {
	f := newFixture()
	inv := f.sell(t, 4)
	require.Equal(t, int64(6), f.stock.Quantity(f.key()))

	r := returns.NewReturn(returns.KindCustomer, f.loc)
	r.InvoiceID = &inv.ID
	r.Reason = "wrong medicine"
	r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: 2}}

	require.NoError(t, f.svc.Create(context.Background(), r))
	assert.Contains(t, r.Number, "RET-")
	assert.Equal(t, "Amoxicillin 250mg", r.Lines[0].ItemName)
	assert.Equal(t, "16.80", r.Total.StringFixed(2), "priced from the invoice line")
	assert.Equal(t, int64(8), f.stock.Quantity(f.key()))
}

func TestCustomerReturn_MoreThanInvoiced(t *testing.T) {
	f := newFixture()
	inv := f.sell(t, 1)

	r := returns.NewReturn(returns.KindCustomer, f.loc)
	r.InvoiceID = &inv.ID
	r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: 2}}

	err := f.svc.Create(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 1 invoiced")
	assert.Equal(t, int64(9), f.stock.Quantity(f.key()))
}

func TestCustomerReturn_EarlierReturnsCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv := f.sell(t, 4)

	newReturn := func(qty int64) *returns.Return {
		r := returns.NewReturn(returns.KindCustomer, f.loc)
		r.InvoiceID = &inv.ID
		r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: qty}}
		return r
	}

	require.NoError(t, f.svc.Create(ctx, newReturn(3)))
	assert.Equal(t, int64(9), f.stock.Quantity(f.key()))

	err := f.svc.Create(ctx, newReturn(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 4 invoiced, 3 already returned")

	require.NoError(t, f.svc.Create(ctx, newReturn(1)))
	err = f.svc.Create(ctx, newReturn(1))
	require.Error(t, err)
	assert.Equal(t, int64(10), f.stock.Quantity(f.key()), "never more than was sold comes back")
}

func TestCustomerReturn_InvoiceLocked(t *testing.T) {
	gen := &numerator.MockGenerator{}
	f := newFixture()
	locker := lock.NewLocal()
	stockSvc := stock.NewService(f.stock, nil)
	svc := returns.NewService(domaintest.NewReturnRepo(), posting.NewEngine(stockSvc, nil), gen, nil, f.invoices,
		returns.WithLocker(locker))
	inv := f.sell(t, 2)

	held, err := locker.Obtain(context.Background(), lock.Key("invoice", inv.ID), time.Minute)
	require.NoError(t, err)
	defer held.Release(context.Background())

	r := returns.NewReturn(returns.KindCustomer, f.loc)
	r.InvoiceID = &inv.ID
	r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: 1}}
	err = svc.Create(context.Background(), r)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, int64(8), f.stock.Quantity(f.key()))
}

func TestCustomerReturn_RequiresInvoice(t *testing.T) {
	f := newFixture()
	r := returns.NewReturn(returns.KindCustomer, f.loc)
	r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: 1}}

	err := f.svc.Create(context.Background(), r)
	assert.Contains(t, err.Error(), "invoice is required")

	missing := id.New()
	r.InvoiceID = &missing
	err = f.svc.Create(context.Background(), r)
	assert.Contains(t, err.Error(), "invoice not found")
}

func TestVendorReturnAndDisposal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendor := id.New()

	vr := returns.NewReturn(returns.KindVendor, f.loc)
	vr.VendorID = &vendor
	vr.Lines = documents.Lines{{ItemID: f.item, ItemName: "Amoxicillin 250mg", BatchNo: "A1", Quantity: 3, Rate: decimal.NewFromInt(4)}}
	require.NoError(t, f.svc.Create(ctx, vr))
	assert.Equal(t, int64(7), f.stock.Quantity(f.key()))

	d := returns.NewReturn(returns.KindDisposal, f.loc)
	d.Lines = documents.Lines{{ItemID: f.item, ItemName: "Amoxicillin 250mg", BatchNo: "A1", Quantity: 1}}
	err := f.svc.Create(ctx, d)
	assert.Contains(t, err.Error(), "reason is required")

	d.Reason = "broken bottle"
	require.NoError(t, f.svc.Create(ctx, d))
	assert.Equal(t, int64(6), f.stock.Quantity(f.key()))

	over := returns.NewReturn(returns.KindDisposal, f.loc)
	over.Reason = "expired"
	over.Lines = documents.Lines{{ItemID: f.item, ItemName: "Amoxicillin 250mg", BatchNo: "A1", Quantity: 7}}
	err = f.svc.Create(ctx, over)
	assert.True(t, apperror.IsInsufficientStock(err))

	for _, m := range f.stock.AllMovements() {
		if m.RecorderID == vr.ID {
			assert.Equal(t, entity.RecordTypeExpense, m.RecordType)
			require.NotNil(t, m.VendorID)
			assert.Equal(t, vendor, *m.VendorID)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	f := newFixture()
	r := returns.NewReturn("exchange", f.loc)
	r.Lines = documents.Lines{{ItemID: f.item, BatchNo: "A1", Quantity: 1}}
	err := f.svc.Create(context.Background(), r)
	assert.Contains(t, err.Error(), "unknown return kind")
}
