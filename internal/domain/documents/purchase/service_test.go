package purchase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/domain/domaintest"
)

type fixture struct {
	svc      *purchase.Service
	requests *domaintest.DocumentRepo[*purchase.Request]
	orders   *domaintest.DocumentRepo[*purchase.Order]
}

func newFixture() fixture {
	f := fixture{
		requests: domaintest.NewDocumentRepo[*purchase.Request](),
		orders:   domaintest.NewDocumentRepo[*purchase.Order](),
	}
	f.svc = purchase.NewService(f.requests, f.orders, &numerator.MockGenerator{}, nil)
	return f
}

func lines() documents.Lines {
	return documents.Lines{
		{ItemID: id.New(), ItemName: "Paracetamol 500mg", Quantity: 100, Rate: decimal.NewFromInt(2), TaxRate: decimal.NewFromInt(12)},
		{ItemID: id.New(), ItemName: "ORS", Quantity: 20, Rate: decimal.RequireFromString("10.50")},
	}
}

func TestCreateRequest_NumbersAndTotals(t *testing.T) {
	f := newFixture()
	r := purchase.NewRequest(id.New(), id.New())
	r.Lines = lines()

	require.NoError(t, f.svc.CreateRequest(context.Background(), r))
	assert.Contains(t, r.Number, "PR-")
	assert.Equal(t, purchase.StatusDraft, r.Status)
	assert.Equal(t, "434.00", r.Total.StringFixed(2))
	assert.Equal(t, "24.00", r.TaxTotal.StringFixed(2))
	assert.Equal(t, 2, r.Lines[1].LineNo)

	got, err := f.svc.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture()
	r := purchase.NewRequest(id.Nil(), id.New())
	r.Lines = lines()

	err := f.svc.CreateRequest(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "department is required")
	assert.Equal(t, 0, f.requests.Len())
}

func TestRequestWorkflow_ApproveAndConvert(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := purchase.NewRequest(id.New(), id.New())
	r.Lines = lines()
	require.NoError(t, f.svc.CreateRequest(ctx, r))

	_, err := f.svc.ConvertRequest(ctx, r.ID, id.New())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	_, err = f.svc.ApproveRequest(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(ctx, r.ID)
	assert.Error(t, err)

	vendor := id.New()
	order, err := f.svc.ConvertRequest(ctx, r.ID, vendor)
	require.NoError(t, err)
	assert.Contains(t, order.Number, "PO-")
	assert.Equal(t, vendor, order.VendorID)
	require.NotNil(t, order.RequestID)
	assert.Equal(t, r.ID, *order.RequestID)
	assert.Len(t, order.Lines, 2)
	assert.True(t, order.Total.Equal(r.Total))

	got, err := f.svc.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusOrdered, got.Status)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, order.ID, *got.OrderID)
}

func TestConvertRequest_RequiresVendor(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ConvertRequest(context.Background(), id.New(), id.Nil())
	assert.Contains(t, err.Error(), "vendor is required")
}

func TestOrder_ApproveAndReceive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendor, loc := id.New(), id.New()
	o := purchase.NewOrder(vendor, loc)
	o.Lines = lines()
	require.NoError(t, f.svc.CreateOrder(ctx, o))

	err := f.svc.MarkReceived(ctx, o.ID, vendor, loc)
	assert.Error(t, err, "draft order cannot be received")

	_, err = f.svc.ApproveOrder(ctx, o.ID)
	require.NoError(t, err)

	err = f.svc.MarkReceived(ctx, o.ID, id.New(), loc)
	assert.Contains(t, err.Error(), "another vendor")

	require.NoError(t, f.svc.MarkReceived(ctx, o.ID, vendor, loc))
	got, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, got.Status)

	assert.Error(t, f.svc.MarkReceived(ctx, o.ID, vendor, loc))
}
