package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain/auth"
)

type memUsers struct {
	mu    sync.Mutex
	users map[id.ID]*auth.User
}

func (m *memUsers) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[id.ID]*auth.User)
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (m *memUsers) Update(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Exists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func (m *memTokens) SaveRefreshToken(_ context.Context, t *auth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]*auth.RefreshToken)
	}
	m.tokens[t.TokenHash] = t
	return nil
}

func (m *memTokens) GetRefreshToken(_ context.Context, hash string) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil, apperror.NewNotFound("refresh_token", hash)
	}
	return t, nil
}

func (m *memTokens) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.ID == tokenID {
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (m *memTokens) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (m *memTokens) CleanupExpiredTokens(context.Context) (int, error) { return 0, nil }

func newService() (*auth.Service, *memUsers) {
	users := &memUsers{}
	svc := auth.NewService(users, &memTokens{}, tx.Nop{},
		auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		auth.DefaultServiceConfig())
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterRequest{Username: " Asha ", Password: "s3cret-pass", Role: auth.RolePharmacist})
	require.NoError(t, err)
	assert.Equal(t, "asha", user.Username)

	_, err = svc.Register(ctx, auth.RegisterRequest{Username: "asha", Password: "another-pass"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)

	tokens, logged, err := svc.Login(ctx, auth.Credentials{Username: "ASHA", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotNil(t, logged.LastLoginAt)

	uc, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, []string{auth.RolePharmacist}, uc.Roles)
	assert.Contains(t, uc.Permissions, auth.PermBillingWrite)
	assert.False(t, uc.IsAdmin)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Register(context.Background(), auth.RegisterRequest{Username: "bob", Password: "short"})
	assert.ErrorContains(t, err, "at least 8 characters")

	_, err = svc.Register(context.Background(), auth.RegisterRequest{Username: "bob", Password: "long-enough", Role: "janitor"})
	assert.ErrorContains(t, err, "unknown role")
}

func TestLogin_LocksAfterFailedAttempts(t *testing.T) {
	svc, users := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterRequest{Username: "ravi", Password: "correct-horse"})
	require.NoError(t, err)

	for range 5 {
		_, _, err = svc.Login(ctx, auth.Credentials{Username: "ravi", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)

	_, _, err = svc.Login(ctx, auth.Credentials{Username: "ravi", Password: "correct-horse"})
	assert.ErrorContains(t, err, "temporarily locked")
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.Login(context.Background(), auth.Credentials{Username: "ghost", Password: "whatever"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{Username: "meena", Password: "pass-word-1"})
	require.NoError(t, err)
	first, _, err := svc.Login(ctx, auth.Credentials{Username: "meena", Password: "pass-word-1"})
	require.NoError(t, err)

	second, err := svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorContains(t, err, "expired or revoked")
}

func TestValidateToken_RejectsForeignSecret(t *testing.T) {
	svc, _ := newService()
	other := auth.NewJWTService(auth.DefaultJWTConfig("other-secret"))

	token, _, err := other.GenerateAccessToken(auth.NewUser("x", "", auth.RoleAdmin), "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
