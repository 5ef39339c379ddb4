package transfer_test

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
	"pharmacy/internal/domain/documents/transfer"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
)

func TestCreate(t *testing.T) {
	repo := domaintest.NewStockRepo()
	item, loc := id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "Insulin", BatchNo: "I1", LocationID: loc, Quantity: 10})

	docs := domaintest.NewDocumentRepo[*transfer.Transfer]()
	svc := transfer.NewService(docs, posting.NewEngine(stock.NewService(repo, nil), nil), &numerator.MockGenerator{}, nil)
	ctx := context.Background()

	tr := transfer.NewTransfer(loc, "  City branch ")
	tr.VehicleNo = " ka01ab1234"
	tr.Lines = documents.Lines{{ItemID: item, ItemName: "Insulin", BatchNo: "I1", Quantity: 4, Rate: decimal.NewFromInt(100)}}
	require.NoError(t, svc.Create(ctx, tr))

	assert.Contains(t, tr.Number, "ETR-")
	assert.Equal(t, "City branch", tr.Destination)
	assert.Equal(t, "KA01AB1234", tr.VehicleNo)
	assert.Equal(t, int64(6), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "I1", LocationID: loc}))

	over := transfer.NewTransfer(loc, "City branch")
	over.Lines = documents.Lines{{ItemID: item, ItemName: "Insulin", BatchNo: "I1", Quantity: 7}}
	err := svc.Create(ctx, over)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Contains(t, err.Error(), "Insulin: only 6 available in batch I1")

	list, err := svc.ListTransfers(ctx, documents.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	got, err := svc.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
}

func TestCreate_RequiresDestination(t *testing.T) {
	svc := transfer.NewService(domaintest.NewDocumentRepo[*transfer.Transfer](),
		posting.NewEngine(stock.NewService(domaintest.NewStockRepo(), nil), nil), &numerator.MockGenerator{}, nil)

	tr := transfer.NewTransfer(id.New(), "")
	tr.Lines = documents.Lines{{ItemID: id.New(), BatchNo: "B", Quantity: 1}}
	err := svc.Create(context.Background(), tr)
	assert.Contains(t, err.Error(), "destination is required")
}
