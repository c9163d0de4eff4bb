package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/blog/internal/domain"
)

func newTestOAuthService(cfg OAuthConfig) (*OAuthService, *fakeUserStore) {
	store := newFakeUserStore()
	tokens := NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	auth := NewAuthService(store, tokens)
	return NewOAuthService(store, auth, cfg), store
}

func TestOAuthService_ProviderConfiguration(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOAuthService(OAuthConfig{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		BaseURL:            "http://localhost:8080",
	})

	assert.True(t, svc.Configured(domain.AuthProviderGoogle))
	assert.False(t, svc.Configured(domain.AuthProviderFacebook))

	url, err := svc.AuthURL(domain.AuthProviderGoogle, "state-123")
	require.NoError(t, err)
	assert.Contains(t, url, "client-id")
	assert.Contains(t, url, "state-123")

	_, err = svc.AuthURL(domain.AuthProviderFacebook, "state-123")
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
}

func TestOAuthService_ResolveOrCreate_NewUser(t *testing.T) {
	t.Parallel()

	svc, store := newTestOAuthService(OAuthConfig{})
	ctx := context.Background()

	user, err := svc.ResolveOrCreate(ctx, domain.AuthProviderGoogle, domain.OAuthProfile{
		ID:     "g-123",
		Name:   "Ann",
		Email:  "Ann@X.com",
		Avatar: "https://example.com/ann.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@x.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "g-123", user.GoogleID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.IsEmailVerified, "email supplied by the provider counts as verified")
	assert.False(t, user.HasPassword())
	assert.Equal(t, 1, store.count())
}

func TestOAuthService_ResolveOrCreate_WithheldEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOAuthService(OAuthConfig{})
	ctx := context.Background()

	user, err := svc.ResolveOrCreate(ctx, domain.AuthProviderFacebook, domain.OAuthProfile{
		ID: "fb-456",
	})
	require.NoError(t, err)

	assert.Equal(t, "fb-456@facebook.com", user.Email, "placeholder when the provider withheld the email")
	assert.Equal(t, "User", user.Name, "fallback display name")
	assert.False(t, user.IsEmailVerified)
	assert.Equal(t, "fb-456", user.FacebookID)
}

func TestOAuthService_ResolveOrCreate_Idempotent(t *testing.T) {
	t.Parallel()

	svc, store := newTestOAuthService(OAuthConfig{})
	ctx := context.Background()

	profile := domain.OAuthProfile{ID: "g-123", Name: "Ann", Email: "ann@x.com"}

	first, err := svc.ResolveOrCreate(ctx, domain.AuthProviderGoogle, profile)
	require.NoError(t, err)
	second, err := svc.ResolveOrCreate(ctx, domain.AuthProviderGoogle, profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.count(), "no duplicate account is created")
}

func TestOAuthService_ResolveOrCreate_LinksExistingAccountByEmail(t *testing.T) {
	t.Parallel()

	svc, store := newTestOAuthService(OAuthConfig{})
	ctx := context.Background()

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	existing := &domain.User{
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	require.NoError(t, store.Create(ctx, existing))

	// The provider asserts the same email; the identity gets attached to the
	// password-based account without further verification.
	user, err := svc.ResolveOrCreate(ctx, domain.AuthProviderGoogle, domain.OAuthProfile{
		ID:     "g-123",
		Name:   "Ann G",
		Email:  "ANN@x.com",
		Avatar: "https://example.com/ann.png",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "g-123", user.GoogleID)
	assert.Equal(t, "https://example.com/ann.png", user.Avatar)
	assert.Equal(t, 1, store.count())

	// The linked account keeps its password login.
	stored, err := store.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPassword())
	assert.Equal(t, "g-123", stored.GoogleID)
}

func TestOAuthService_Callback_UnconfiguredProvider(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOAuthService(OAuthConfig{})

	_, err := svc.Callback(context.Background(), domain.AuthProviderGoogle, "code")
	require.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	assert.True(t, strings.Contains(err.Error(), "google"))
}
