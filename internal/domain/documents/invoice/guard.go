package invoice

import (
	"fmt"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/registers/stock"
)

// ValidateAgainstBatches checks that no line asks for more than its batch
// holds at locationID. Lines of the same batch are summed. It runs before
// anything is written, on the client and on the server.
func ValidateAgainstBatches(locationID id.ID, lines documents.Lines, batches []*stock.Batch) error {
	remaining := make(map[stock.BatchKey]*stock.Batch, len(batches))
	for _, b := range batches {
		remaining[b.Key()] = b
	}

	requested := make(map[stock.BatchKey]int64)
	for i, l := range lines {
		key := stock.BatchKey{ItemID: l.ItemID, BatchNo: l.BatchNo, LocationID: locationID}
		requested[key] += l.Quantity

		b, ok := remaining[key]
		if !ok {
			return apperror.NewValidation(fmt.Sprintf("%s: batch %s is not available", l.ItemName, l.BatchNo)).
				WithDetail("lineNo", i+1).
				WithDetail("item", l.ItemName).
				WithDetail("batch_no", l.BatchNo).
				WithDetail("available", 0)
		}
		if requested[key] > b.Quantity {
			name := l.ItemName
			if name == "" {
				name = b.ItemName
			}
			return apperror.NewValidation(fmt.Sprintf("%s: only %d available in batch %s", name, b.Quantity, l.BatchNo)).
				WithDetail("lineNo", i+1).
				WithDetail("item", name).
				WithDetail("batch_no", l.BatchNo).
				WithDetail("requested", requested[key]).
				WithDetail("available", b.Quantity)
		}
	}
	return nil
}
