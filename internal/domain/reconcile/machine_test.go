package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
)

type recorder struct {
	calls []int64
	err   error
}

func (r *recorder) exec(_ context.Context, qty int64) error {
	r.calls = append(r.calls, qty)
	return r.err
}

func TestTake_BeforeApprove_NoBackendCall(t *testing.T) {
	m := New(5, 8)
	rec := &recorder{}

	res := m.Take(context.Background(), Snapshot{Available: 100}, rec.exec)

	require.Error(t, res.Err)
	appErr, ok := apperror.AsAppError(res.Err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	assert.Empty(t, rec.calls)
	assert.Equal(t, StatePending, m.State)
}

func TestTake_ExactlyOnceWithDelta(t *testing.T) {
	m := New(5, 8)
	rec := &recorder{}
	require.True(t, m.Approve().OK())

	res := m.Take(context.Background(), Snapshot{Available: 3}, rec.exec)
	require.True(t, res.OK())
	assert.Equal(t, Result{From: StateApproved, To: StateTaken}, res)

	again := m.Take(context.Background(), Snapshot{Available: 3}, rec.exec)
	assert.Error(t, again.Err)
	assert.Equal(t, []int64{3}, rec.calls)
	assert.Equal(t, StateTaken, m.State)
}

func TestTake_InsufficientSnapshot(t *testing.T) {
	m := New(1, 6)
	rec := &recorder{}
	m.Approve()

	res := m.Take(context.Background(), Snapshot{ItemName: "Amoxicillin", BatchNo: "A1", Available: 2}, rec.exec)

	require.Error(t, res.Err)
	assert.True(t, apperror.IsInsufficientStock(res.Err))
	assert.Contains(t, res.Err.Error(), "only 2 available in batch A1")
	assert.Empty(t, rec.calls)
	assert.Equal(t, StateApproved, m.State)
}

func TestTake_NegativeDeltaRejected(t *testing.T) {
	m := New(6, 2)
	rec := &recorder{}
	m.Approve()

	assert.False(t, m.CanTake())
	res := m.Take(context.Background(), Snapshot{Available: 50}, rec.exec)
	assert.Error(t, res.Err)
	assert.Empty(t, rec.calls)
}

func TestReturn_OnceWithAbsoluteDelta(t *testing.T) {
	m := New(10, 4)
	rec := &recorder{}
	m.Approve()
	require.True(t, m.CanReturn())

	res := m.Return(context.Background(), rec.exec)
	require.True(t, res.OK())
	assert.Equal(t, StateReturned, m.State)

	again := m.Return(context.Background(), rec.exec)
	assert.Error(t, again.Err)
	assert.Equal(t, []int64{6}, rec.calls)
}

func TestFailure_RevertsToPriorState(t *testing.T) {
	boom := errors.New("backend unavailable")

	take := New(1, 3)
	take.Approve()
	res := take.Take(context.Background(), Snapshot{Available: 10}, (&recorder{err: boom}).exec)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, Result{From: StateApproved, To: StateApproved, Err: boom}, res)
	assert.Equal(t, StateApproved, take.State)

	ret := New(3, 1)
	ret.Approve()
	res = ret.Return(context.Background(), (&recorder{err: boom}).exec)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, StateApproved, ret.State)

	// a later successful retry is still possible
	rec := &recorder{}
	assert.True(t, ret.Return(context.Background(), rec.exec).OK())
	assert.Equal(t, []int64{2}, rec.calls)
}

func TestApprove_Rules(t *testing.T) {
	unchanged := New(4, 4)
	assert.Error(t, unchanged.Approve().Err)
	assert.Equal(t, StatePending, unchanged.State)

	m := New(1, 2)
	assert.True(t, m.Approve().OK())
	assert.Error(t, m.Approve().Err)
}
