package tx

import (
	"context"
	"sync"
)

type hooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks returns a context that collects AfterCommit callbacks and
// the function that runs them. Managers call run only after the outermost
// transaction commits. When ctx already collects hooks, run is a no-op and
// callbacks go to the outer collector.
func WithCommitHooks(ctx context.Context) (context.Context, func(ctx context.Context)) {
	if _, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		return ctx, func(context.Context) {}
	}
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), h.run
}

// AfterCommit schedules fn to run once the transaction in ctx commits. It
// is dropped on rollback. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
