// Package register_repo provides the PostgreSQL stock register: batches,
// movements and the ledger queries built on them.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBatchesTable   = "reg_stock_batches"
)

var movementColumns = []string{
	"line_id", "recorder_id", "recorder_type", "recorder_number", "recorder_version",
	"period", "record_type",
	"item_id", "item_name", "batch_no", "location_id",
	"quantity", "rate", "expiry_date", "mrp", "vendor_id", "created_at",
}

var batchColumns = []string{
	"id", "item_id", "item_name", "batch_no", "location_id", "expiry_date",
	"quantity", "unit_cost", "mrp", "vendor_id", "created_at", "updated_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func movementRow(m entity.StockMovement) []any {
	return []any{
		m.LineID, m.RecorderID, m.RecorderType, m.RecorderNumber, m.RecorderVersion,
		m.Period, m.RecordType,
		m.ItemID, m.ItemName, m.BatchNo, m.LocationID,
		m.Quantity, m.Rate, m.ExpiryDate, m.MRP, m.VendorID, m.CreatedAt,
	}
}

// CreateMovements inserts movements, through COPY when inside a transaction.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementRow(m))
		}
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(movementRow(m)...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// DeleteMovementsByRecorder removes movements older than beforeVersion.
func (r *StockRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	sql, args, err := r.builder.Delete(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		Where(squirrel.Lt{"recorder_version": beforeVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	return nil
}

// GetMovementsByRecorder retrieves the movements of a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	sql, args, err := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// GetBatchForUpdate locks and returns a batch.
func (r *StockRepo) GetBatchForUpdate(ctx context.Context, key stock.BatchKey) (*stock.Batch, error) {
	sql, args, err := r.builder.Select(batchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"item_id": key.ItemID, "batch_no": key.BatchNo, "location_id": key.LocationID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b stock.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", key.BatchNo)
		}
		return nil, fmt.Errorf("get batch for update: %w", err)
	}
	return &b, nil
}

// SaveBatch upserts a batch on its natural key.
func (r *StockRepo) SaveBatch(ctx context.Context, b *stock.Batch) error {
	sql, args, err := r.builder.Insert(stockBatchesTable).
		Columns(batchColumns...).
		Values(
			b.ID, b.ItemID, b.ItemName, b.BatchNo, b.LocationID, b.ExpiryDate,
			b.Quantity, b.UnitCost, b.MRP, b.VendorID, b.CreatedAt, b.UpdatedAt,
		).
		Suffix(`ON CONFLICT (item_id, batch_no, location_id) DO UPDATE SET
			item_name = EXCLUDED.item_name,
			expiry_date = EXCLUDED.expiry_date,
			quantity = EXCLUDED.quantity,
			unit_cost = EXCLUDED.unit_cost,
			mrp = EXCLUDED.mrp,
			vendor_id = EXCLUDED.vendor_id,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// listQuery builds the stock management query without pagination.
func (r *StockRepo) listQuery(f stock.ListFilter, now time.Time) squirrel.SelectBuilder {
	q := r.builder.Select(prefixed("b", batchColumns)...).From(stockBatchesTable + " b")

	if !f.IncludeEmpty {
		q = q.Where(squirrel.Gt{"b.quantity": 0})
	}
	if f.ItemID != nil {
		q = q.Where(squirrel.Eq{"b.item_id": *f.ItemID})
	}
	if f.LocationID != nil {
		q = q.Where(squirrel.Eq{"b.location_id": *f.LocationID})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"b.item_name": pattern},
			squirrel.ILike{"b.batch_no": pattern},
		})
	}
	if f.ExpiringWithinDays != nil {
		q = q.Where(squirrel.NotEq{"b.expiry_date": nil}).
			Where(squirrel.Lt{"b.expiry_date": now.AddDate(0, 0, *f.ExpiringWithinDays)})
	}
	if f.LowStockOnly {
		q = q.Where(`b.item_id IN (
			SELECT i.id FROM cat_items i
			JOIN reg_stock_batches s ON s.item_id = i.id
			GROUP BY i.id, i.reorder_level
			HAVING SUM(s.quantity) <= i.reorder_level)`)
	}
	return q
}

// ListBatches returns batches for stock management, earliest expiry first.
func (r *StockRepo) ListBatches(ctx context.Context, f stock.ListFilter) (domain.ListResult[*stock.Batch], error) {
	result := domain.ListResult[*stock.Batch]{Limit: f.Limit, Offset: f.Offset}
	q := r.listQuery(f, time.Now().UTC())
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count batches: %w", err)
	}

	q = q.OrderBy("b.expiry_date ASC NULLS LAST", "b.item_name")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list batches: %w", err)
	}
	return result, nil
}

// AvailableBatches returns sellable batches of an item in FEFO order.
func (r *StockRepo) AvailableBatches(ctx context.Context, itemID id.ID, asOf time.Time) ([]*stock.Batch, error) {
	sql, args, err := r.builder.Select(batchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Gt{"quantity": 0}).
		Where(squirrel.Or{squirrel.Eq{"expiry_date": nil}, squirrel.GtOrEq{"expiry_date": asOf}}).
		OrderBy("expiry_date ASC NULLS LAST", "batch_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*stock.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("available batches: %w", err)
	}
	return batches, nil
}

// ExpiringBatches returns batches with stock expiring before until.
func (r *StockRepo) ExpiringBatches(ctx context.Context, until time.Time) ([]*stock.Batch, error) {
	sql, args, err := r.builder.Select(batchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Gt{"quantity": 0}).
		Where(squirrel.NotEq{"expiry_date": nil}).
		Where(squirrel.Lt{"expiry_date": until}).
		OrderBy("expiry_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*stock.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("expiring batches: %w", err)
	}
	return batches, nil
}

func (r *StockRepo) ledgerWhere(q squirrel.SelectBuilder, f stock.LedgerFilter) squirrel.SelectBuilder {
	if f.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *f.ItemID})
	}
	if f.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *f.LocationID})
	}
	if f.BatchNo != "" {
		q = q.Where(squirrel.Eq{"batch_no": f.BatchNo})
	}
	return q
}

// movementsQuery builds the ledger query.
func (r *StockRepo) movementsQuery(f stock.LedgerFilter) squirrel.SelectBuilder {
	q := r.ledgerWhere(r.builder.Select(movementColumns...).From(stockMovementsTable), f)
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"period": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"period": *f.To})
	}
	q = q.OrderBy("period", "created_at")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

// Movements returns ledger movements ordered by period.
func (r *StockRepo) Movements(ctx context.Context, f stock.LedgerFilter) ([]entity.StockMovement, error) {
	sql, args, err := r.movementsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	return movements, nil
}

type openingRow struct {
	ItemID  id.ID `db:"item_id"`
	Balance int64 `db:"balance"`
}

// OpeningBalances sums signed quantities per item before f.From.
func (r *StockRepo) OpeningBalances(ctx context.Context, f stock.LedgerFilter) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64)
	if f.From == nil {
		return out, nil
	}

	q := r.builder.Select(
		"item_id",
		"COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END), 0) AS balance",
	).From(stockMovementsTable)
	q = r.ledgerWhere(q, f).Where(squirrel.Lt{"period": *f.From}).GroupBy("item_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []openingRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("opening balances: %w", err)
	}
	for _, row := range rows {
		out[row.ItemID] = row.Balance
	}
	return out, nil
}

// supplierEntriesSQL is every vendor-facing event: goods receipts are
// credits, their paid amounts and vendor returns are debits.
const supplierEntriesSQL = `
	SELECT date, 'goods_receipt' AS document_type, number AS document_number,
		0::numeric AS debit, total AS credit
	FROM doc_goods_receipts
	WHERE vendor_id = $1 AND posted
	UNION ALL
	SELECT date, 'payment', number, paid_amount, 0
	FROM doc_goods_receipts
	WHERE vendor_id = $1 AND posted AND paid_amount > 0
	UNION ALL
	SELECT date, 'vendor_return', number, total, 0
	FROM doc_returns
	WHERE vendor_id = $1 AND posted AND kind = 'vendor_return'`

// SupplierEntries lists supplier ledger events within [from, to].
func (r *StockRepo) SupplierEntries(ctx context.Context, vendorID id.ID, from, to time.Time) ([]stock.SupplierEntry, error) {
	sql := `SELECT date, document_type, document_number, debit, credit FROM (` +
		supplierEntriesSQL + `) e WHERE date >= $2 AND date <= $3 ORDER BY date, document_number`

	var entries []stock.SupplierEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, vendorID, from, to); err != nil {
		return nil, fmt.Errorf("supplier entries: %w", err)
	}
	return entries, nil
}

// SupplierBalanceBefore returns credit minus debit before from.
func (r *StockRepo) SupplierBalanceBefore(ctx context.Context, vendorID id.ID, from time.Time) (types.Money, error) {
	sql := `SELECT COALESCE(SUM(credit - debit), 0) FROM (` + supplierEntriesSQL + `) e WHERE date < $2`

	var balance types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, vendorID, from).Scan(&balance); err != nil {
		return types.Zero(), fmt.Errorf("supplier opening balance: %w", err)
	}
	return balance, nil
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// Compile-time check.
var _ stock.Repository = (*StockRepo)(nil)
