package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

func protectedApp(t *testing.T) *testApp {
	t.Helper()

	app := newTestApp(t)
	authn := JWTAuth(app.auth, app.tokens)
	adminOnly := RequireRole(domain.RoleAdmin)

	app.echo.GET("/protected", func(c echo.Context) error {
		claims, ok := GetClaims(c)
		require.True(t, ok)
		return JSON(c, http.StatusOK, echo.Map{"userId": claims.UserID})
	}, authn)
	app.echo.GET("/admin", func(c echo.Context) error {
		return JSON(c, http.StatusOK, echo.Map{"ok": true})
	}, authn, adminOnly)

	return app
}

func TestJWTAuth_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)

	rec := app.request(http.MethodGet, "/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no token provided", errorMessage(t, rec))

	rec = app.request(http.MethodGet, "/protected", "", map[string]string{
		echo.HeaderAuthorization: "Token abc",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no token provided", errorMessage(t, rec))
}

func TestJWTAuth_RejectsRefreshTokenOnAccessRoute(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	_, _, refreshToken := app.register(t, "Ann", "ann@x.com", "secret1")

	rec := app.request(http.MethodGet, "/protected", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", errorMessage(t, rec))
}

func TestJWTAuth_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	userID, _, _ := app.register(t, "Ann", "ann@x.com", "secret1")

	expired := service.NewTokenService("test-access-secret", "test-refresh-secret", -time.Minute, 7*24*time.Hour)
	user, err := app.store.FindByID(t.Context(), userID)
	require.NoError(t, err)
	token, err := expired.IssueAccessToken(user)
	require.NoError(t, err)

	rec := app.request(http.MethodGet, "/protected", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", errorMessage(t, rec))
}

func TestJWTAuth_RejectsTokenOfDeletedUser(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	userID, accessToken, _ := app.register(t, "Ann", "ann@x.com", "secret1")

	app.store.remove(userID)

	rec := app.request(http.MethodGet, "/protected", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + accessToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "user not found", errorMessage(t, rec))
}

func TestJWTAuth_ValidTokenExposesClaims(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	userID, accessToken, _ := app.register(t, "Ann", "ann@x.com", "secret1")

	rec := app.request(http.MethodGet, "/protected", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + accessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), userID)
}

// brokenUserStore simulates a store outage on every read.
type brokenUserStore struct {
	*memUserStore
}

func (s *brokenUserStore) FindByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("store unavailable")
}

func TestJWTAuth_StoreOutageIsNotUnauthorized(t *testing.T) {
	t.Parallel()

	tokens := service.NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	auth := service.NewAuthService(&brokenUserStore{newMemUserStore()}, tokens)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.GET("/protected", func(c echo.Context) error {
		return JSON(c, http.StatusOK, echo.Map{"ok": true})
	}, JWTAuth(auth, tokens))

	token, err := tokens.IssueAccessToken(&domain.User{ID: "user-1", Email: "ann@x.com", Role: domain.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestRequireRole_ForbidsRegularUser(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	_, accessToken, _ := app.register(t, "Ann", "ann@x.com", "secret1")

	rec := app.request(http.MethodGet, "/admin", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + accessToken,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient role", errorMessage(t, rec))
}

func TestRequireRole_AllowsAdmin(t *testing.T) {
	t.Parallel()

	app := protectedApp(t)
	userID, _, _ := app.register(t, "Ann", "ann@x.com", "secret1")

	// Promote and issue a token with the admin role claim.
	user, err := app.store.FindByID(t.Context(), userID)
	require.NoError(t, err)
	user.Role = domain.RoleAdmin
	app.store.remove(userID)
	require.NoError(t, app.store.Create(t.Context(), user))

	token, err := app.tokens.IssueAccessToken(user)
	require.NoError(t, err)

	rec := app.request(http.MethodGet, "/admin", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
