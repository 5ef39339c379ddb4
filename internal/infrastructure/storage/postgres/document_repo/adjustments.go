package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/infrastructure/storage/postgres"
)

const (
	adjustmentsTable = "doc_invoice_adjustments"
	// openAdjustmentIndex allows one pending or approved adjustment per line
	openAdjustmentIndex = "doc_invoice_adjustments_open_line_idx"
)

// AdjustmentRepo stores invoice line adjustments.
type AdjustmentRepo struct {
	txManager *postgres.TxManager
	cols      []string
	builder   squirrel.StatementBuilderType
}

// NewAdjustmentRepo creates the repository.
func NewAdjustmentRepo(txManager *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		txManager: txManager,
		cols:      postgres.ExtractDBColumns[invoice.Adjustment](),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *AdjustmentRepo) Create(ctx context.Context, a *invoice.Adjustment) error {
	sql, args, err := r.builder.Insert(adjustmentsTable).SetMap(postgres.StructToMap(a)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == openAdjustmentIndex {
			return apperror.NewConflict("line already has an open adjustment")
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (r *AdjustmentRepo) get(ctx context.Context, adjID id.ID, suffix string) (*invoice.Adjustment, error) {
	q := r.builder.Select(r.cols...).From(adjustmentsTable).Where(squirrel.Eq{"id": adjID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var a invoice.Adjustment
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("adjustment", adjID.String())
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return &a, nil
}

func (r *AdjustmentRepo) GetByID(ctx context.Context, adjID id.ID) (*invoice.Adjustment, error) {
	return r.get(ctx, adjID, "")
}

func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, adjID id.ID) (*invoice.Adjustment, error) {
	return r.get(ctx, adjID, "FOR UPDATE")
}

// Update saves the mutable part of an adjustment: its state.
func (r *AdjustmentRepo) Update(ctx context.Context, a *invoice.Adjustment) error {
	sql, args, err := r.builder.Update(adjustmentsTable).
		Set("state", a.State).
		Set("new_qty", a.NewQty).
		Set("reason", a.Reason).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("adjustment", a.ID.String())
	}
	return nil
}

func (r *AdjustmentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*invoice.Adjustment, error) {
	sql, args, err := r.builder.Select(r.cols...).
		From(adjustmentsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*invoice.Adjustment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return out, nil
}

var _ invoice.AdjustmentRepository = (*AdjustmentRepo)(nil)
