package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/reconcile"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/domain/rules"
)

type fixture struct {
	svc    *invoice.Service
	stock  *domaintest.StockRepo
	repo   *domaintest.DocumentRepo[*invoice.Invoice]
	adj    *domaintest.AdjustmentRepo
	trail  *audit.Memory
	locker *lock.Local

	item, loc id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engineRules, err := rules.NewDefault()
	require.NoError(t, err)

	f := &fixture{
		stock:  domaintest.NewStockRepo(),
		repo:   domaintest.NewDocumentRepo[*invoice.Invoice](),
		adj:    domaintest.NewAdjustmentRepo(),
		trail:  &audit.Memory{},
		locker: lock.NewLocal(),
		item:   id.New(),
		loc:    id.New(),
	}
	stockSvc := stock.NewService(f.stock, nil)
	f.svc = invoice.NewService(
		f.repo, f.adj,
		posting.NewEngine(stockSvc, nil),
		stockSvc,
		&numerator.MockGenerator{},
		nil,
		invoice.WithRules(engineRules),
		invoice.WithAudit(f.trail),
		invoice.WithLocker(f.locker),
	)

	expiry := time.Now().AddDate(1, 0, 0)
	f.stock.PutBatch(&stock.Batch{
		ItemID: f.item, ItemName: "Paracetamol 500mg", BatchNo: "B12", LocationID: f.loc,
		Quantity: 4, ExpiryDate: &expiry, MRP: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(2),
	})
	return f
}

func (f *fixture) key() stock.BatchKey {
	return stock.BatchKey{ItemID: f.item, BatchNo: "B12", LocationID: f.loc}
}

func (f *fixture) invoice(qty int64) *invoice.Invoice {
	inv := invoice.NewInvoice(f.loc)
	inv.CustomerName = "Walk-in"
	inv.Lines = documents.Lines{{
		ItemID: f.item, BatchNo: "B12", Quantity: qty,
		Rate: decimal.NewFromInt(5), TaxRate: decimal.NewFromInt(12),
	}}
	return inv
}

func TestCreate_PostsAndDeducts(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(3)
	inv.PaidAmount = decimal.RequireFromString("16.80")

	require.NoError(t, f.svc.Create(context.Background(), inv))

	assert.Contains(t, inv.Number, "INV-")
	assert.True(t, inv.Posted)
	assert.Equal(t, "Paracetamol 500mg", inv.Lines[0].ItemName, "filled from the batch")
	assert.Equal(t, "15.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "1.80", inv.TaxTotal.StringFixed(2))
	assert.Equal(t, "16.80", inv.Total.StringFixed(2))
	assert.Equal(t, invoice.PaymentPaid, inv.PaymentStatus)
	assert.Equal(t, int64(1), f.stock.Quantity(f.key()))
}

func TestCreate_QuantityExceedsBatch(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Create(context.Background(), f.invoice(5))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "Paracetamol 500mg: only 4 available in batch B12", appErr.Message)

	assert.Equal(t, int64(4), f.stock.Quantity(f.key()))
	assert.Equal(t, 0, f.repo.Len())
}

func TestCreate_SplitLinesOfOneBatchAreSummed(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(3)
	inv.Lines = append(inv.Lines, documents.Line{ItemID: f.item, BatchNo: "B12", Quantity: 2, Rate: decimal.NewFromInt(5)})

	err := f.svc.Create(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 4 available")
}

func TestCreate_RateAboveMRPRejectedByRules(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(1)
	inv.Lines[0].Rate = decimal.NewFromInt(6)

	err := f.svc.Create(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_within_mrp")
	assert.Equal(t, int64(4), f.stock.Quantity(f.key()))
}

func TestCreate_RequiresCustomer(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(1)
	inv.CustomerName = "  "
	err := f.svc.Create(context.Background(), inv)
	assert.Contains(t, err.Error(), "customer or walk-in name is required")
}

func TestCreate_PartialPayment(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(1)
	inv.PaidAmount = decimal.NewFromInt(2)
	require.NoError(t, f.svc.Create(context.Background(), inv))
	assert.Equal(t, invoice.PaymentPartial, inv.PaymentStatus)
}

func TestReturnPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(1)
	inv.PaidAmount = decimal.RequireFromString("5.60")
	require.NoError(t, f.svc.Create(ctx, inv))

	_, err := f.svc.ReturnPayment(ctx, inv.ID, decimal.NewFromInt(10), "customer changed mind")
	assert.Contains(t, err.Error(), "refund exceeds")

	got, err := f.svc.ReturnPayment(ctx, inv.ID, decimal.Zero, "customer changed mind")
	require.NoError(t, err)
	assert.Equal(t, invoice.PaymentReturned, got.PaymentStatus)
	assert.Equal(t, "5.60", got.RefundedAmount.StringFixed(2))

	require.Len(t, f.trail.Entries, 1)
	assert.Equal(t, audit.ActionPaymentReturn, f.trail.Entries[0].Action)

	_, err = f.svc.ReturnPayment(ctx, inv.ID, decimal.NewFromInt(1), "again")
	assert.Error(t, err, "nothing left to refund")
}

func TestReturnPayment_Locked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(1)
	inv.PaidAmount = decimal.NewFromInt(1)
	require.NoError(t, f.svc.Create(ctx, inv))

	held, err := f.locker.Obtain(ctx, lock.Key("invoice", inv.ID), time.Second)
	require.NoError(t, err)
	defer func() { _ = held.Release(ctx) }()

	_, err = f.svc.ReturnPayment(ctx, inv.ID, decimal.Zero, "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestAdjustment_TakeFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(2)
	require.NoError(t, f.svc.Create(ctx, inv))
	require.Equal(t, int64(2), f.stock.Quantity(f.key()))

	adj, err := f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, 4, "customer wants more")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePending, adj.State)
	assert.Equal(t, int64(2), adj.Delta())

	// take before approve is rejected without touching stock
	_, res, err := f.svc.TakeAdjustment(ctx, adj.ID)
	require.Error(t, err)
	assert.Equal(t, reconcile.StatePending, res.To)
	assert.Equal(t, int64(2), f.stock.Quantity(f.key()))

	_, res, err = f.svc.ApproveAdjustment(ctx, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateApproved, res.To)

	got, res, err := f.svc.TakeAdjustment(ctx, adj.ID)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, reconcile.StateTaken, got.State)
	assert.Equal(t, int64(0), f.stock.Quantity(f.key()))

	stored, err := f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Lines[0].Quantity)
	assert.Equal(t, "22.40", stored.Total.StringFixed(2))

	// exactly one take
	_, _, err = f.svc.TakeAdjustment(ctx, adj.ID)
	assert.Error(t, err)
	assert.Equal(t, audit.ActionTake, f.trail.Entries[len(f.trail.Entries)-1].Action)
}

func TestAdjustment_TakeBeyondBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(2)
	require.NoError(t, f.svc.Create(ctx, inv))

	adj, err := f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, 5, "")
	require.NoError(t, err)
	_, _, err = f.svc.ApproveAdjustment(ctx, adj.ID)
	require.NoError(t, err)

	_, res, err := f.svc.TakeAdjustment(ctx, adj.ID)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, reconcile.StateApproved, res.To)

	stored, err := f.adj.GetByID(ctx, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateApproved, stored.State)
	assert.Equal(t, int64(2), f.stock.Quantity(f.key()))
}

func TestAdjustment_ReturnFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(3)
	require.NoError(t, f.svc.Create(ctx, inv))

	adj, err := f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, 1, "two strips returned")
	require.NoError(t, err)

	_, err = f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, 2, "")
	assert.Error(t, err, "one open adjustment per line")

	_, _, err = f.svc.ApproveAdjustment(ctx, adj.ID)
	require.NoError(t, err)

	_, _, err = f.svc.TakeAdjustment(ctx, adj.ID)
	assert.Error(t, err, "negative delta cannot be taken")

	got, res, err := f.svc.ReturnAdjustment(ctx, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateApproved, res.From)
	assert.Equal(t, reconcile.StateReturned, got.State)
	assert.Equal(t, int64(3), f.stock.Quantity(f.key()))

	_, _, err = f.svc.ReturnAdjustment(ctx, adj.ID)
	assert.Error(t, err, "further returns are rejected")
	assert.Equal(t, int64(3), f.stock.Quantity(f.key()))

	list, err := f.svc.ListAdjustments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRequestAdjustment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(1)
	require.NoError(t, f.svc.Create(ctx, inv))

	_, err := f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, 1, "")
	assert.Contains(t, err.Error(), "unchanged")

	_, err = f.svc.RequestAdjustment(ctx, inv.ID, id.New(), 2, "")
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.RequestAdjustment(ctx, inv.ID, inv.Lines[0].LineID, -1, "")
	assert.Error(t, err)
}

func TestRequestAdjustment_OneOpenPerLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(1)
	require.NoError(t, f.svc.Create(ctx, inv))
	lineID := inv.Lines[0].LineID

	held, err := f.locker.Obtain(ctx, lock.Key("invoice_line", lineID), time.Second)
	require.NoError(t, err)
	_, err = f.svc.RequestAdjustment(ctx, inv.ID, lineID, 2, "")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	require.NoError(t, held.Release(ctx))

	first, err := f.svc.RequestAdjustment(ctx, inv.ID, lineID, 2, "")
	require.NoError(t, err)

	_, err = f.svc.RequestAdjustment(ctx, inv.ID, lineID, 3, "")
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, first.ID.String(), appErr.Details["adjustment_id"])

	list, err := f.svc.ListAdjustments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
