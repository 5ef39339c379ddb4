// Package audit provides audit field enrichment and the audit trail contract.
package audit

import (
	"context"

	appctx "pharmacy/internal/core/context"
)

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the context user.
// Use in BeforeCreate hooks. If no user is in context, this is a no-op.
func EnrichCreatedBy(ctx context.Context, e any) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	if target, ok := e.(interface {
		SetCreatedBy(string)
		SetUpdatedBy(string)
	}); ok {
		target.SetCreatedBy(userID)
		target.SetUpdatedBy(userID)
	}
}

// EnrichUpdatedBy sets only UpdatedBy from the context user.
func EnrichUpdatedBy(ctx context.Context, e any) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	if target, ok := e.(interface{ SetUpdatedBy(string) }); ok {
		target.SetUpdatedBy(userID)
	}
}
