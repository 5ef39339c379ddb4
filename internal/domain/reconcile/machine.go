// Package reconcile models the approval-gated take/return workflow for an
// edited line quantity.
//
// A line saved with OriginalQty and edited to NewQty has a signed delta.
// After approval a positive delta allows exactly one take of that many units
// from the batch, a negative delta exactly one return of |delta| units.
// Every transition reports a Result; when the stock mutation fails the
// machine is put back into the state it was in before the call.
package reconcile

import (
	"context"

	"pharmacy/internal/core/apperror"
)

// State of an adjustment.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateTaken    State = "taken"
	StateReturned State = "returned"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateTaken, StateReturned:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateTaken || s == StateReturned
}

// Executor performs the stock mutation for qty units (always positive).
type Executor func(ctx context.Context, qty int64) error

// Snapshot is the batch quantity known to the caller at decision time.
// Take is checked against it without re-fetching.
type Snapshot struct {
	BatchNo   string
	ItemName  string
	Available int64
}

// Result describes one attempted transition.
type Result struct {
	From State
	To   State
	Err  error
}

// OK reports whether the transition happened.
func (r Result) OK() bool { return r.Err == nil }

// Machine is the per-line workflow.
type Machine struct {
	State       State
	OriginalQty int64
	NewQty      int64
}

// New starts a machine in the pending state.
func New(originalQty, newQty int64) *Machine {
	return &Machine{State: StatePending, OriginalQty: originalQty, NewQty: newQty}
}

// Delta is NewQty − OriginalQty.
func (m *Machine) Delta() int64 {
	return m.NewQty - m.OriginalQty
}

// CanTake reports whether Take would be attempted (ignoring stock).
func (m *Machine) CanTake() bool {
	return m.State == StateApproved && m.Delta() > 0
}

// CanReturn reports whether Return would be attempted.
func (m *Machine) CanReturn() bool {
	return m.State == StateApproved && m.Delta() < 0
}

// Approve moves pending to approved.
func (m *Machine) Approve() Result {
	from := m.State
	if from != StatePending {
		return Result{From: from, To: from, Err: apperror.NewInvalidTransition("adjustment", string(from), "approve")}
	}
	if m.Delta() == 0 {
		return Result{From: from, To: from, Err: apperror.NewValidation("quantity is unchanged, nothing to approve").
			WithDetail("field", "quantity")}
	}
	m.State = StateApproved
	return Result{From: from, To: m.State}
}

// Take draws Delta() units from the batch. The executor is not called
// unless the machine is approved, the delta is positive and the snapshot
// holds enough stock.
func (m *Machine) Take(ctx context.Context, snap Snapshot, exec Executor) Result {
	from := m.State
	if from != StateApproved {
		return Result{From: from, To: from, Err: apperror.NewInvalidTransition("adjustment", string(from), "take")}
	}
	delta := m.Delta()
	if delta <= 0 {
		return Result{From: from, To: from, Err: apperror.NewValidation("take requires an increased quantity").
			WithDetail("delta", delta)}
	}
	if snap.Available < delta {
		return Result{From: from, To: from, Err: apperror.NewInsufficientStock(snap.ItemName, snap.BatchNo, delta, snap.Available)}
	}
	return m.run(ctx, from, StateTaken, delta, exec)
}

// Return gives back |Delta()| units to the batch.
func (m *Machine) Return(ctx context.Context, exec Executor) Result {
	from := m.State
	if from != StateApproved {
		return Result{From: from, To: from, Err: apperror.NewInvalidTransition("adjustment", string(from), "return")}
	}
	delta := m.Delta()
	if delta >= 0 {
		return Result{From: from, To: from, Err: apperror.NewValidation("return requires a decreased quantity").
			WithDetail("delta", delta)}
	}
	return m.run(ctx, from, StateReturned, -delta, exec)
}

// run advances optimistically and reverts if the executor fails.
func (m *Machine) run(ctx context.Context, from, to State, qty int64, exec Executor) Result {
	m.State = to
	if err := exec(ctx, qty); err != nil {
		m.State = from
		return Result{From: from, To: from, Err: err}
	}
	return Result{From: from, To: to}
}
