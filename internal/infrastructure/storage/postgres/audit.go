package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/audit"
)

// CompressionAlgo specifies how the changes payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 2 * 1024

// AuditEntry is a row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Action            string          `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId"`
	Username          string          `db:"username" json:"username"`
	Changes           json.RawMessage `db:"changes" json:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditRecorder writes the audit trail of stock adjustments, payment
// returns and invoice adjustments. Large payloads are zstd-compressed.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRecorder creates an audit recorder.
func NewAuditRecorder(txManager *TxManager) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	entry, err := r.prepare(ctx, e)
	if err != nil {
		return err
	}

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, username,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.Username,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRecorder) prepare(ctx context.Context, e audit.Entry) (AuditEntry, error) {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("marshal changes: %w", err)
	}

	entry := AuditEntry{
		ID:              id.New(),
		EntityType:      e.EntityType,
		EntityID:        e.EntityID,
		Action:          e.Action,
		Changes:         changes,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if u := appctx.GetUser(ctx); u != nil {
		entry.UserID = u.UserID
		entry.Username = u.Username
	}

	if len(changes) > r.compressThreshold {
		entry.ChangesCompressed = r.encoder.EncodeAll(changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
	return entry, nil
}

func (r *AuditRecorder) inflate(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := r.decoder.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	e.Changes = raw
	e.ChangesCompressed = nil
	return nil
}

// History returns the newest entries for an entity.
func (r *AuditRecorder) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const sql = `
		SELECT id, entity_type, entity_id, action, user_id, username,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID, &e.Username,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := r.inflate(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ audit.Recorder = (*AuditRecorder)(nil)
