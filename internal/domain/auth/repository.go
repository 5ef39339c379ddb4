package auth

import (
	"context"

	"pharmacy/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Update saves user data with optimistic locking on version.
	Update(ctx context.Context, user *User) error
	Exists(ctx context.Context, username string) (bool, error)
}

// TokenRepository defines token storage operations.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
	// CleanupExpiredTokens removes expired tokens and returns how many were deleted.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}
