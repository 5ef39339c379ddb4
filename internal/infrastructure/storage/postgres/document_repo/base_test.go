package document_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/goods_receipt"
	"pharmacy/internal/domain/documents/returns"
)

func TestListQuery_GoodsReceipts(t *testing.T) {
	repo := NewGoodsReceiptRepo(nil)
	vendorID := id.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	posted := true

	sql, args, err := repo.listQuery(documents.ListFilter{
		ListFilter:     domain.ListFilter{Search: "INV-77"},
		DateFrom:       &from,
		CounterpartyID: &vendorID,
		Posted:         &posted,
		Kind:           "ignored",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_goods_receipts WHERE deletion_mark = $1")
	assert.Contains(t, sql, "(number ILIKE $2 OR supplier_invoice_no ILIKE $3)")
	assert.Contains(t, sql, "date >= $4")
	assert.Contains(t, sql, "vendor_id = $5")
	assert.Contains(t, sql, "posted = $6")
	assert.NotContains(t, sql, "kind")
	assert.Equal(t, []any{false, "%INV-77%", "%INV-77%", from, vendorID.String(), true}, args)
}

func TestListQuery_ReturnKind(t *testing.T) {
	repo := NewReturnRepo(nil)
	sql, args, err := repo.listQuery(documents.ListFilter{Kind: string(returns.KindDisposal)}).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "WHERE deletion_mark = $1 AND kind = $2"))
	assert.Equal(t, []any{false, "disposal"}, args)
}

func TestUpdateQuery_OptimisticLock(t *testing.T) {
	repo := NewGoodsReceiptRepo(nil)
	grn := goods_receipt.NewGoodsReceipt(id.New(), id.New())
	grn.Version = 3

	q, docID, version, err := repo.updateQuery(grn)
	require.NoError(t, err)
	assert.Equal(t, grn.ID, docID)
	assert.Equal(t, 3, version)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "UPDATE doc_goods_receipts SET"))
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	assert.NotContains(t, sql, "created_at =")
	assert.Equal(t, 3, args[len(args)-1])
}

func TestParseOrderBy(t *testing.T) {
	repo := NewGoodsReceiptRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "date DESC, number DESC", got)

	got, err = repo.parseOrderBy("-total")
	require.NoError(t, err)
	assert.Equal(t, "total DESC", got)

	_, err = repo.parseOrderBy("total; DROP TABLE x")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReturnedQuery(t *testing.T) {
	repo := NewReturnRepo(nil)
	invoiceID, itemID := id.New(), id.New()

	sql, args, err := repo.returnedQuery(invoiceID, itemID, "A1").ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT COALESCE(SUM(l.quantity), 0) FROM doc_return_lines l JOIN doc_returns r ON r.id = l.document_id"))
	// squirrel sorts Eq keys
	assert.Contains(t, sql, "l.batch_no = $1 AND l.item_id = $2 AND r.deletion_mark = $3 AND r.invoice_id = $4 AND r.kind = $5 AND r.posted = $6")
	assert.Equal(t, []any{"A1", itemID.String(), false, invoiceID.String(), "customer_return", true}, args)
}
