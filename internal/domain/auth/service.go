package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/tx"
	"pharmacy/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Service provides authentication logic.
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a staff account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return nil, apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	if req.Role == "" {
		req.Role = RoleCashier
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(username, string(passwordHash), req.Role)
	user.FullName = strings.TrimSpace(req.FullName)
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.Exists(ctx, username)
		if err != nil {
			return fmt.Errorf("check username exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("user", "username", username)
		}
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// Login authenticates user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	now := s.now()

	user, err := s.userRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(creds.Username)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if uerr := s.userRepo.Update(ctx, user); uerr != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", uerr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return tokens, user, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokenRepo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid(s.now()) {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(s.now()); err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeRefreshToken(ctx, token.ID, "refreshed"); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.generateTokenPair(ctx, user)
}

// Logout revokes all user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "logout")
}

// GetUserByID retrieves a user.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ValidateToken resolves an access token for the auth middleware.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	uc, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return uc, nil
}

func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: s.now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: s.now(),
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user, refreshToken.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	if err := s.tokenRepo.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
