package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sumire/blog/internal/domain"
)

// UserStore defines the user data access interface consumed by the auth
// services.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	LinkProvider(ctx context.Context, userID string, provider domain.AuthProvider, providerID, avatar string) error
}

// AuthResult bundles the authenticated user with a fresh token pair.
type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

// AuthService orchestrates registration, login, refresh rotation and logout.
type AuthService struct {
	users  UserStore
	tokens *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can still hit the unique email index.
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
		}
		return nil, err
	}

	return s.OpenSession(ctx, user)
}

// Login verifies credentials and opens a session. Every credential failure
// returns the same generic message so callers cannot probe which emails are
// registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
		}
		return nil, err
	}

	if !user.HasPassword() {
		return nil, fmt.Errorf("%w: please login using your social account", domain.ErrUnauthorized)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		slog.Warn("password verification failed", "user_id", user.ID)
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	return s.OpenSession(ctx, user)
}

// Refresh exchanges a valid refresh token for a brand-new pair and rotates
// the stored token, making the presented one permanently unusable.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", domain.ErrUnauthorized)
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired refresh token", domain.ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
		}
		return nil, err
	}

	// The presented token must match the stored one; a mismatch means the
	// session was superseded by a later login or refresh, or revoked by
	// logout.
	if user.RefreshToken != refreshToken {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}

	result, err := s.OpenSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &result.Tokens, nil
}

// Logout clears the stored refresh token, invalidating the current session.
// It is idempotent: logging out an already-logged-out or nonexistent user
// succeeds.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

// CurrentUser returns the account for an authenticated user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// OpenSession issues a token pair and persists the refresh token on the user
// record, silently replacing any previous session. Shared by register, login,
// refresh and the OAuth callback path.
func (s *AuthService) OpenSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	pair, err := s.tokens.IssueTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	user.RefreshToken = pair.RefreshToken
	return &AuthResult{User: user, Tokens: *pair}, nil
}
