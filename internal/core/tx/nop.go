package tx

import "context"

// Nop runs fn directly without a transaction.
// Used by in-memory repositories in tests and by read paths that do not need one.
// AfterCommit callbacks run when fn succeeds.
type Nop struct{}

// RunInTransaction implements Manager.
func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, runHooks := WithCommitHooks(ctx)
	if err := fn(txCtx); err != nil {
		return err
	}
	runHooks(ctx)
	return nil
}
