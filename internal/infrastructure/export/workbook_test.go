package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/registers/stock"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestLedgerWorkbook(t *testing.T) {
	day := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	data, err := LedgerWorkbook([]stock.LedgerEntry{
		{Date: day, DocumentType: "goods_receipt", DocumentNumber: "GRN-2026-00001", ItemName: "Amoxicillin 250", BatchNo: "AX1", In: 100, Balance: 100, Rate: decimal.RequireFromString("3.50")},
		{Date: day, DocumentType: "invoice", DocumentNumber: "INV-2026-00004", ItemName: "Amoxicillin 250", BatchNo: "AX1", Out: 12, Balance: 88, Rate: decimal.RequireFromString("5.00")},
	})
	require.NoError(t, err)

	f := open(t, data)
	rows, err := f.GetRows("Stock Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Document", "Number", "Item", "Batch", "In", "Out", "Balance", "Rate"}, rows[0])
	assert.Equal(t, "2026-02-03", rows[1][0])
	assert.Equal(t, "INV-2026-00004", rows[2][2])
	assert.Equal(t, "88", rows[2][7])
}

func TestSupplierLedgerWorkbook(t *testing.T) {
	ledger := stock.BuildSupplierLedger(id.New(), decimal.NewFromInt(500), []stock.SupplierEntry{
		{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), DocumentType: "goods_receipt", DocumentNumber: "GRN-2026-00002", Credit: decimal.NewFromInt(1200)},
		{Date: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), DocumentType: "payment", DocumentNumber: "GRN-2026-00002", Debit: decimal.NewFromInt(700)},
	})

	data, err := SupplierLedgerWorkbook("Medline Distributors", ledger)
	require.NoError(t, err)

	rows, err := open(t, data).GetRows("Supplier Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Opening balance", rows[1][1])
	assert.Equal(t, "Medline Distributors", rows[1][2])
	assert.Equal(t, "1700", rows[2][5])
	assert.Equal(t, "Closing balance", rows[4][1])
	assert.Equal(t, "1000", rows[4][5])
}
