package domaintest

import (
	"context"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/returns"
)

// ReturnRepo is a map-backed returns.Repository.
type ReturnRepo struct {
	*DocumentRepo[*returns.Return]
}

// NewReturnRepo creates an empty repository.
func NewReturnRepo() *ReturnRepo {
	return &ReturnRepo{DocumentRepo: NewDocumentRepo[*returns.Return]()}
}

func (r *ReturnRepo) ReturnedQuantity(_ context.Context, invoiceID, itemID id.ID, batchNo string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var qty int64
	for docID, doc := range r.docs {
		if doc.Kind != returns.KindCustomer || doc.InvoiceID == nil || *doc.InvoiceID != invoiceID {
			continue
		}
		if !doc.Posted || doc.DeletionMark {
			continue
		}
		for _, l := range r.lines[docID] {
			if l.ItemID == itemID && l.BatchNo == batchNo {
				qty += l.Quantity
			}
		}
	}
	return qty, nil
}
