package stock

import (
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
)

// BuildLedger turns ordered movements into ledger rows. Each item keeps its
// own running balance starting from opening[itemID].
func BuildLedger(opening map[id.ID]int64, movements []entity.StockMovement) []LedgerEntry {
	balances := make(map[id.ID]int64, len(opening))
	for k, v := range opening {
		balances[k] = v
	}

	entries := make([]LedgerEntry, 0, len(movements))
	for _, m := range movements {
		e := LedgerEntry{
			Date:           m.Period,
			DocumentType:   m.RecorderType,
			DocumentNumber: m.RecorderNumber,
			ItemID:         m.ItemID,
			ItemName:       m.ItemName,
			BatchNo:        m.BatchNo,
			LocationID:     m.LocationID,
			Rate:           m.Rate,
		}
		if m.RecordType == entity.RecordTypeExpense {
			e.Out = m.Quantity
		} else {
			e.In = m.Quantity
		}
		balances[m.ItemID] += m.SignedQuantity()
		e.Balance = balances[m.ItemID]
		entries = append(entries, e)
	}
	return entries
}

// BuildSupplierLedger applies a running balance (credit increases what is
// owed, debit decreases it) to the entries in order.
func BuildSupplierLedger(vendorID id.ID, opening types.Money, entries []SupplierEntry) SupplierLedger {
	l := SupplierLedger{
		VendorID:       vendorID,
		OpeningBalance: opening,
		Entries:        make([]SupplierLedgerEntry, 0, len(entries)),
		TotalDebit:     types.Zero(),
		TotalCredit:    types.Zero(),
	}

	balance := opening
	for _, e := range entries {
		balance = balance.Add(e.Credit).Sub(e.Debit)
		l.TotalDebit = l.TotalDebit.Add(e.Debit)
		l.TotalCredit = l.TotalCredit.Add(e.Credit)
		l.Entries = append(l.Entries, SupplierLedgerEntry{SupplierEntry: e, Balance: balance})
	}
	l.ClosingBalance = balance
	return l
}
