package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/registers/stock"
)

func TestListQuery_Filters(t *testing.T) {
	repo := NewStockRepo(nil)
	itemID, locID := id.New(), id.New()
	days := 30
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.listQuery(stock.ListFilter{
		ItemID:             &itemID,
		LocationID:         &locID,
		Search:             "para",
		ExpiringWithinDays: &days,
	}, now).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT b.id, b.item_id"))
	assert.Contains(t, sql, "b.quantity > $1")
	assert.Contains(t, sql, "b.item_id = $2")
	assert.Contains(t, sql, "b.location_id = $3")
	assert.Contains(t, sql, "(b.item_name ILIKE $4 OR b.batch_no ILIKE $5)")
	assert.Contains(t, sql, "b.expiry_date IS NOT NULL")
	assert.Contains(t, sql, "b.expiry_date < $6")
	require.Len(t, args, 6)
	assert.Equal(t, "%para%", args[3])
	assert.Equal(t, now.AddDate(0, 0, 30), args[5])
}

func TestListQuery_LowStockAndEmpty(t *testing.T) {
	repo := NewStockRepo(nil)

	sql, args, err := repo.listQuery(stock.ListFilter{LowStockOnly: true, IncludeEmpty: true}, time.Now()).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "b.quantity >")
	assert.Contains(t, sql, "HAVING SUM(s.quantity) <= i.reorder_level")
	assert.Empty(t, args)
}

func TestMovementsQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	itemID := id.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.movementsQuery(stock.LedgerFilter{ItemID: &itemID, BatchNo: "B1", From: &from, Limit: 100}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM reg_stock_movements WHERE item_id = $1 AND batch_no = $2 AND period >= $3")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY period, created_at LIMIT 100"))
	assert.Equal(t, []any{itemID.String(), "B1", from}, args)
}
