package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/returns"
	"pharmacy/internal/infrastructure/storage/postgres"
)

// ReturnRepo stores returns and answers how much of an invoice came back.
type ReturnRepo struct {
	*DocumentRepo[*returns.Return]
}

func NewReturnRepo(txm *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{DocumentRepo: NewDocumentRepo(txm, returnTable,
		postgres.ExtractDBColumns[returns.Return](), func() *returns.Return { return &returns.Return{} })}
}

func (r *ReturnRepo) returnedQuery(invoiceID, itemID id.ID, batchNo string) squirrel.SelectBuilder {
	return r.Builder().
		Select("COALESCE(SUM(l.quantity), 0)").
		From(returnTable.Lines + " l").
		Join(returnTable.Header + " r ON r.id = l.document_id").
		Where(squirrel.Eq{
			"r.kind":          string(returns.KindCustomer),
			"r.invoice_id":    invoiceID,
			"r.posted":        true,
			"r.deletion_mark": false,
			"l.item_id":       itemID,
			"l.batch_no":      batchNo,
		})
}

// ReturnedQuantity implements returns.Repository.
func (r *ReturnRepo) ReturnedQuantity(ctx context.Context, invoiceID, itemID id.ID, batchNo string) (int64, error) {
	sql, args, err := r.returnedQuery(invoiceID, itemID, batchNo).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var qty int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&qty); err != nil {
		return 0, fmt.Errorf("returned quantity: %w", err)
	}
	return qty, nil
}

var _ returns.Repository = (*ReturnRepo)(nil)
