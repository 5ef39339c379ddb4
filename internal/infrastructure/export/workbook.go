// Package export renders stock reports as .xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pharmacy/internal/domain/registers/stock"
)

// ContentType is the MIME type of the generated files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateFormat = "2006-01-02"

// row is one sheet row; values keep their cell types.
type row []any

// sheet writes headings and rows to a fresh single-sheet workbook.
func sheet(name string, headings []string, rows []row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]any, len(headings))
	for i, h := range headings {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headings), 1)
		_ = f.SetCellStyle(name, "A1", last, bold)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any(r)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func toBytes(f *excelize.File) ([]byte, error) {
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// LedgerWorkbook renders the stock ledger.
func LedgerWorkbook(entries []stock.LedgerEntry) ([]byte, error) {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{
			e.Date.Format(dateFormat), e.DocumentType, e.DocumentNumber,
			e.ItemName, e.BatchNo, e.In, e.Out, e.Balance, e.Rate.InexactFloat64(),
		})
	}

	f, err := sheet("Stock Ledger",
		[]string{"Date", "Document", "Number", "Item", "Batch", "In", "Out", "Balance", "Rate"},
		rows)
	if err != nil {
		return nil, err
	}
	return toBytes(f)
}

// SupplierLedgerWorkbook renders a vendor statement with opening and
// closing balance rows around the entries.
func SupplierLedgerWorkbook(vendorName string, l stock.SupplierLedger) ([]byte, error) {
	rows := make([]row, 0, len(l.Entries)+2)
	rows = append(rows, row{"", "Opening balance", vendorName, nil, nil, l.OpeningBalance.InexactFloat64()})
	for _, e := range l.Entries {
		rows = append(rows, row{
			e.Date.Format(dateFormat), e.DocumentType, e.DocumentNumber,
			e.Debit.InexactFloat64(), e.Credit.InexactFloat64(), e.Balance.InexactFloat64(),
		})
	}
	rows = append(rows, row{
		"", "Closing balance", "",
		l.TotalDebit.InexactFloat64(), l.TotalCredit.InexactFloat64(), l.ClosingBalance.InexactFloat64(),
	})

	f, err := sheet("Supplier Ledger",
		[]string{"Date", "Document", "Number", "Debit", "Credit", "Balance"},
		rows)
	if err != nil {
		return nil, err
	}
	return toBytes(f)
}
