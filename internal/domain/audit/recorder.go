package audit

import (
	"context"
	"sync"

	"pharmacy/internal/core/id"
)

// Action names recorded in the trail.
const (
	ActionCreate        = "create"
	ActionUpdate        = "update"
	ActionStockAdjust   = "stock_adjust"
	ActionPaymentReturn = "payment_return"
	ActionTake          = "adjustment_take"
	ActionReturn        = "adjustment_return"
)

// Entry is one audit record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     string
	Changes    map[string]any
}

// Recorder persists audit entries. Implementations read the acting user
// from the context.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Memory keeps entries in a slice. Used in tests.
type Memory struct {
	mu      sync.Mutex
	Entries []Entry
}

// Record implements Recorder.
func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }
