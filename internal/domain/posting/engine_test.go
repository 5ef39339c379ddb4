package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
)

type fakeStock struct {
	recorded []entity.StockMovement
	reversed []int
	failWith error
}

func (f *fakeStock) RecordMovements(_ context.Context, m []entity.StockMovement) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.recorded = append(f.recorded, m...)
	return nil
}

func (f *fakeStock) ReverseMovements(_ context.Context, _ id.ID, before int) error {
	f.reversed = append(f.reversed, before)
	return nil
}

type fakeDoc struct {
	entity.Document
	qty int64
}

func (d *fakeDoc) GetDocumentType() string { return "test_doc" }

func (d *fakeDoc) GenerateMovements(context.Context) (*MovementSet, error) {
	set := NewMovementSet()
	set.AddStock(entity.StockMovement{
		MovementBase: entity.MovementBase{RecordType: entity.RecordTypeExpense},
		ItemID:       id.New(),
		BatchNo:      "B1",
		Quantity:     d.qty,
	})
	return set, nil
}

func TestPost_StampsMovements(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, nil)
	doc := &fakeDoc{Document: entity.NewDocument(), qty: 3}
	doc.Number = "INV-2026-00001"

	saved := false
	err := engine.Post(context.Background(), doc, func(context.Context) error {
		saved = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, doc.Posted)
	require.Len(t, stock.recorded, 1)
	m := stock.recorded[0]
	assert.Equal(t, doc.ID, m.RecorderID)
	assert.Equal(t, "test_doc", m.RecorderType)
	assert.Equal(t, "INV-2026-00001", m.RecorderNumber)
	assert.Equal(t, 1, m.RecorderVersion)
	assert.Empty(t, stock.reversed)
}

func TestPost_RepostReversesPrevious(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, nil)
	doc := &fakeDoc{Document: entity.NewDocument(), qty: 1}
	save := func(context.Context) error { return nil }

	require.NoError(t, engine.Post(context.Background(), doc, save))
	require.NoError(t, engine.Post(context.Background(), doc, save))

	assert.Equal(t, []int{2}, stock.reversed)
	assert.Equal(t, 2, doc.PostedVersion)
}

func TestPost_FailureRestoresState(t *testing.T) {
	boom := errors.New("insufficient")
	engine := NewEngine(&fakeStock{failWith: boom}, nil)
	doc := &fakeDoc{Document: entity.NewDocument(), qty: 1}

	err := engine.Post(context.Background(), doc, func(context.Context) error { return nil })

	assert.ErrorIs(t, err, boom)
	assert.False(t, doc.Posted)
	assert.Equal(t, 0, doc.PostedVersion)
}

func TestUnpost(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, nil)
	doc := &fakeDoc{Document: entity.NewDocument(), qty: 1}
	save := func(context.Context) error { return nil }

	require.NoError(t, engine.Post(context.Background(), doc, save))
	require.NoError(t, engine.Unpost(context.Background(), doc, save))

	assert.False(t, doc.Posted)
	assert.Equal(t, []int{2}, stock.reversed)
}

func TestPost_ClosedPeriod(t *testing.T) {
	stock := &fakeStock{}
	closed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(stock, nil).WithPolicy(NewClosedPeriodPolicy(closed))
	save := func(context.Context) error { return nil }

	doc := &fakeDoc{Document: entity.NewDocument(), qty: 1}
	doc.Date = closed.AddDate(0, 0, -1)

	err := engine.Post(context.Background(), doc, save)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
	assert.Empty(t, stock.recorded)

	doc.Date = closed
	require.NoError(t, engine.Post(context.Background(), doc, save))
}

func TestNewClosedPeriodPolicy_ZeroIsOpen(t *testing.T) {
	p := NewClosedPeriodPolicy(time.Time{})

	assert.IsType(t, OpenPolicy{}, p)
	assert.NoError(t, p.CanUnpost(context.Background(), time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)))
}
