package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

// memUserStore is an in-memory service.UserStore for handler tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (m *memUserStore) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	m.seq++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", m.seq)
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserStore) FindByProviderID(_ context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if id := u.LinkedProviderID(provider); id != "" && id == providerID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (m *memUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (m *memUserStore) LinkProvider(_ context.Context, userID string, provider domain.AuthProvider, providerID, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LinkProvider(provider, providerID)
	if avatar != "" {
		u.Avatar = avatar
	}
	return nil
}

func (m *memUserStore) remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// testApp wires an echo instance with the auth stack the way cmd/server does,
// minus the database and the rate limiter.
type testApp struct {
	echo   *echo.Echo
	store  *memUserStore
	auth   *service.AuthService
	tokens *service.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := newMemUserStore()
	tokens := service.NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	auth := service.NewAuthService(store, tokens)
	oauth := service.NewOAuthService(store, auth, service.OAuthConfig{})
	posts := service.NewPostService(newMemPostStore())

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	h := NewAuthHandler(auth, oauth, "http://localhost:3000")
	ph := NewPostHandler(posts)
	authn := JWTAuth(auth, tokens)
	maybeAuthn := OptionalJWTAuth(auth, tokens)

	api := e.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)
	api.GET("/auth/me", h.Me, authn)
	api.POST("/auth/logout", h.Logout, authn)
	api.GET("/auth/:provider", h.OAuthRedirect)

	api.GET("/posts", ph.List)
	api.GET("/posts/:id", ph.Get, maybeAuthn)
	api.POST("/posts", ph.Create, authn)
	api.PATCH("/posts/:id", ph.Update, authn)
	api.DELETE("/posts/:id", ph.Delete, authn)

	return &testApp{echo: e, store: store, auth: auth, tokens: tokens}
}

func (a *testApp) request(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns the issued tokens.
func (a *testApp) register(t *testing.T, name, email, password string) (userID, accessToken, refreshToken string) {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":%q}`, name, email, password)
	rec := a.request(http.MethodPost, "/api/v1/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.User.ID, resp.Data.AccessToken, resp.Data.RefreshToken
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Message
}
