// Package auth_repo provides PostgreSQL implementations for auth repositories.
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

const userColumns = `id, username, password_hash, full_name, role, is_active,
	last_login_at, failed_login_attempts, locked_until, created_at, updated_at, version`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO users (id, username, password_hash, full_name, role, is_active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Username, user.PasswordHash, user.FullName, user.Role,
		user.IsActive, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, "id = $1", userID, userID.String())
}

// GetByUsername retrieves user by lowercase username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, "username = $1", username, username)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any, key string) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Update saves profile and login bookkeeping with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE users SET
			full_name = $3, role = $4, is_active = $5, password_hash = $6,
			last_login_at = $7, failed_login_attempts = $8, locked_until = $9,
			updated_at = NOW(), version = version + 1
		WHERE id = $1 AND version = $2`,
		user.ID, user.Version, user.FullName, user.Role, user.IsActive, user.PasswordHash,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}
	user.Version++
	return nil
}

// Exists checks if username is taken.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
