package consumption_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/consumption"
	"pharmacy/internal/domain/domaintest"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
)

func TestCreate(t *testing.T) {
	repo := domaintest.NewStockRepo()
	item, loc, dept := id.New(), id.New(), id.New()
	repo.PutBatch(&stock.Batch{ItemID: item, ItemName: "Gloves", BatchNo: "G1", LocationID: loc, Quantity: 100})

	docs := domaintest.NewDocumentRepo[*consumption.Issue]()
	docs.Match = func(c *consumption.Issue, f documents.ListFilter) bool {
		return f.LocationID == nil || c.LocationID == *f.LocationID
	}
	svc := consumption.NewService(docs, posting.NewEngine(stock.NewService(repo, nil), nil), &numerator.MockGenerator{}, nil)
	ctx := context.Background()

	issue := consumption.NewIssue(loc, dept)
	issue.IssuedTo = "Ward 3"
	issue.Lines = documents.Lines{{ItemID: item, ItemName: "Gloves", BatchNo: "G1", Quantity: 30}}
	require.NoError(t, svc.Create(ctx, issue))

	assert.Contains(t, issue.Number, "CIS-")
	assert.Equal(t, int64(70), repo.Quantity(stock.BatchKey{ItemID: item, BatchNo: "G1", LocationID: loc}))

	other := id.New()
	list, err := svc.ListIssues(ctx, documents.ListFilter{LocationID: &other})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	list, err = svc.ListIssues(ctx, documents.ListFilter{LocationID: &loc})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc := consumption.NewService(domaintest.NewDocumentRepo[*consumption.Issue](),
		posting.NewEngine(stock.NewService(domaintest.NewStockRepo(), nil), nil), &numerator.MockGenerator{}, nil)

	issue := consumption.NewIssue(id.New(), id.Nil())
	issue.Lines = documents.Lines{{ItemID: id.New(), BatchNo: "G1", Quantity: 1}}
	err := svc.Create(context.Background(), issue)
	assert.Contains(t, err.Error(), "department is required")

	issue = consumption.NewIssue(id.New(), id.New())
	issue.Lines = documents.Lines{{ItemID: id.New(), Quantity: 1}}
	err = svc.Create(context.Background(), issue)
	assert.Contains(t, err.Error(), "line 1: batch number is required")
}
