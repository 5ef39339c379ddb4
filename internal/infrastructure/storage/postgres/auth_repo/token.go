package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/auth"
	"pharmacy/internal/infrastructure/storage/postgres"
)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *postgres.TxManager
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &token, `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, COALESCE(revoked_reason, '') AS revoked_reason
		FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("refresh_token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL`, tokenID, reason)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes all tokens for a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL`, userID, reason)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired and revoked tokens.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < NOW() OR revoked_at < NOW() - INTERVAL '1 day'`)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
