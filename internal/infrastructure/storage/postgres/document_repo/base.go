// Package document_repo provides PostgreSQL repositories for documents. Every
// document type is a header table plus a lines table sharing documents.Line.
package document_repo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/infrastructure/storage/postgres"
)

var lineColumns = []string{
	"line_id", "line_no", "item_id", "item_name", "batch_no", "expiry_date",
	"quantity", "rate", "tax_rate", "mrp", "tax_amount", "amount",
}

// Table describes where a document type is stored.
type Table struct {
	Header string
	Lines  string

	// CounterpartyColumn is matched by ListFilter.CounterpartyID
	CounterpartyColumn string
	// LocationColumn is matched by ListFilter.LocationID
	LocationColumn string
	// SearchColumns are searched besides the number
	SearchColumns []string
	// HasKind enables ListFilter.Kind
	HasKind bool
}

// DocumentRepo implements documents.Repository for one document type.
type DocumentRepo[T documents.Doc] struct {
	txManager  *postgres.TxManager
	table      Table
	selectCols []string
	newFn      func() T
}

// NewDocumentRepo creates a repository. selectCols usually comes from
// postgres.ExtractDBColumns on the header type.
func NewDocumentRepo[T documents.Doc](txManager *postgres.TxManager, table Table, selectCols []string, newFn func() T) *DocumentRepo[T] {
	return &DocumentRepo[T]{
		txManager:  txManager,
		table:      table,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *DocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepo[T]) columnsOf(doc T, skip ...string) map[string]any {
	data := postgres.StructToMap(doc)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts the header.
func (r *DocumentRepo[T]) Create(ctx context.Context, doc T) error {
	sql, args, err := r.Builder().Insert(r.table.Header).SetMap(r.columnsOf(doc)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table.Header, err)
	}
	return nil
}

type versioned interface {
	SetVersion(v int)
}

// updateQuery builds the optimistic-lock update of doc at version.
func (r *DocumentRepo[T]) updateQuery(doc T) (squirrel.UpdateBuilder, id.ID, int, error) {
	data := postgres.StructToMap(doc)
	docID, ok := data["id"].(id.ID)
	if !ok {
		return squirrel.UpdateBuilder{}, id.Nil(), 0, fmt.Errorf("%s: document has no id", r.table.Header)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, id.Nil(), 0, fmt.Errorf("%s: document has no version", r.table.Header)
	}

	q := r.Builder().
		Update(r.table.Header).
		SetMap(r.columnsOf(doc, "id", "version", "created_at", "created_by", "updated_at")).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"version": version})
	return q, docID, version, nil
}

// Update saves the header. The in-memory version follows the stored one so
// a second save in the same request does not trip the lock.
func (r *DocumentRepo[T]) Update(ctx context.Context, doc T) error {
	q, docID, version, err := r.updateQuery(doc)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table.Header, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.table.Header, docID)
	}
	if v, ok := any(doc).(versioned); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *DocumentRepo[T]) get(ctx context.Context, docID id.ID, forUpdate bool) (T, error) {
	doc := r.newFn()
	q := r.Builder().Select(r.selectCols...).From(r.table.Header).Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.table.Header, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.table.Header, err)
	}
	return doc, nil
}

// GetByID retrieves the header.
func (r *DocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, false)
}

// GetForUpdate retrieves the header with a row lock.
func (r *DocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, true)
}

// GetLines retrieves lines ordered by line number.
func (r *DocumentRepo[T]) GetLines(ctx context.Context, docID id.ID) (documents.Lines, error) {
	sql, args, err := r.Builder().
		Select(lineColumns...).
		From(r.table.Lines).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines documents.Lines
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the lines of a document.
func (r *DocumentRepo[T]) SaveLines(ctx context.Context, docID id.ID, lines documents.Lines) error {
	queries := []postgres.BatchQuery{{
		SQL:  "DELETE FROM " + r.table.Lines + " WHERE document_id = $1",
		Args: []any{docID},
	}}

	if len(lines) > 0 {
		q := r.Builder().Insert(r.table.Lines).Columns(append([]string{"document_id"}, lineColumns...)...)
		for _, l := range lines {
			q = q.Values(
				docID, l.LineID, l.LineNo, l.ItemID, l.ItemName, l.BatchNo, l.ExpiryDate,
				l.Quantity, l.Rate, l.TaxRate, l.MRP, l.TaxAmount, l.Amount,
			)
		}
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert lines: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	// Inside a transaction both statements go in one round-trip.
	if r.txManager.GetTx(ctx) != nil {
		return postgres.NewBatchExecutor(r.txManager).ExecuteBatch(ctx, queries)
	}

	querier := r.txManager.GetQuerier(ctx)
	for _, q := range queries {
		if _, err := querier.Exec(ctx, q.SQL, q.Args...); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
	}
	return nil
}

// listQuery applies f to the header select without pagination.
func (r *DocumentRepo[T]) listQuery(f documents.ListFilter) squirrel.SelectBuilder {
	q := r.Builder().Select(r.selectCols...).From(r.table.Header)

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		or := squirrel.Or{squirrel.ILike{"number": pattern}}
		for _, col := range r.table.SearchColumns {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}
	if f.CounterpartyID != nil && r.table.CounterpartyColumn != "" {
		q = q.Where(squirrel.Eq{r.table.CounterpartyColumn: *f.CounterpartyID})
	}
	if f.LocationID != nil && r.table.LocationColumn != "" {
		q = q.Where(squirrel.Eq{r.table.LocationColumn: *f.LocationID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.Posted != nil {
		q = q.Where(squirrel.Eq{"posted": *f.Posted})
	}
	if f.Kind != "" && r.table.HasKind {
		q = q.Where(squirrel.Eq{"kind": f.Kind})
	}
	return q
}

// List retrieves headers with filtering and pagination.
func (r *DocumentRepo[T]) List(ctx context.Context, f documents.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset}
	q := r.listQuery(f)
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
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
		return result, fmt.Errorf("list %s: %w", r.table.Header, err)
	}
	return result, nil
}

func (r *DocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "date DESC, number DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !slices.Contains(r.selectCols, field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}
