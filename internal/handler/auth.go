package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth        *service.AuthService
	oauth       *service.OAuthService
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, oauth *service.OAuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, oauth: oauth, frontendURL: frontendURL}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	// bcrypt truncates at 72 bytes, so longer passwords are rejected up front.
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register creates a new account and returns the user with a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, authResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// Login verifies credentials and returns the user with a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, authResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// Refresh rotates a refresh token into a new token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, pair)
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	user, err := h.auth.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, echo.Map{"user": user})
}

// Logout invalidates the current session. Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := h.auth.Logout(c.Request().Context(), claims.UserID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Envelope{})
}

// OAuthRedirect sends the user to the provider's consent page.
func (h *AuthHandler) OAuthRedirect(c echo.Context) error {
	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		return err
	}
	if !h.oauth.Configured(provider) {
		return echo.NewHTTPError(http.StatusServiceUnavailable,
			fmt.Sprintf("%s OAuth is not configured", provider))
	}

	state := generateState()
	c.SetCookie(&http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	authURL, err := h.oauth.AuthURL(provider, state)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// OAuthCallback completes the provider handshake and redirects to the
// frontend with the issued tokens.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		return err
	}
	if !h.oauth.Configured(provider) {
		return echo.NewHTTPError(http.StatusServiceUnavailable,
			fmt.Sprintf("%s OAuth is not configured", provider))
	}

	if err := validateOAuthState(c); err != nil {
		return fmt.Errorf("%w: %s authentication failed", domain.ErrUnauthorized, provider)
	}

	code := c.QueryParam("code")
	if code == "" {
		return fmt.Errorf("%w: %s authentication failed", domain.ErrUnauthorized, provider)
	}

	result, err := h.oauth.Callback(c.Request().Context(), provider, code)
	if err != nil {
		return err
	}

	redirect := fmt.Sprintf("%s/auth/callback?token=%s&refreshToken=%s",
		h.frontendURL,
		url.QueryEscape(result.Tokens.AccessToken),
		url.QueryEscape(result.Tokens.RefreshToken),
	)
	return c.Redirect(http.StatusFound, redirect)
}

func parseProvider(name string) (domain.AuthProvider, error) {
	switch domain.AuthProvider(name) {
	case domain.AuthProviderGoogle:
		return domain.AuthProviderGoogle, nil
	case domain.AuthProviderFacebook:
		return domain.AuthProviderFacebook, nil
	}
	return "", fmt.Errorf("%w: unknown auth provider %q", domain.ErrNotFound, name)
}

func generateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "fallback-state"
	}
	return base64.URLEncoding.EncodeToString(b)
}

func validateOAuthState(c echo.Context) error {
	cookie, err := c.Cookie("oauth_state")
	if err != nil {
		return fmt.Errorf("missing oauth_state cookie")
	}

	queryState := c.QueryParam("state")
	if queryState == "" || queryState != cookie.Value {
		return fmt.Errorf("state mismatch")
	}

	return nil
}
