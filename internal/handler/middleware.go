package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

const contextKeyClaims = "auth_claims"

// RequestLogger logs each HTTP request with structured fields.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)

			return err
		}
	}
}

// JWTAuth validates the Bearer token, confirms the user still exists and
// attaches the verified claims to the request context. The existence check
// makes account deletion take effect immediately for access tokens, which
// have no revocation list.
func JWTAuth(auth *service.AuthService, tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return fmt.Errorf("%w: no token provided", domain.ErrUnauthorized)
			}

			claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)
			}

			if _, err := auth.CurrentUser(c.Request().Context(), claims.UserID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
				}
				// A store outage is not an auth failure.
				return err
			}

			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth attaches verified claims when a valid Bearer token is
// present and leaves the request anonymous otherwise. Used on public routes
// whose responses vary for authenticated viewers, like draft visibility.
func OptionalJWTAuth(auth *service.AuthService, tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return next(c)
			}
			claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return next(c)
			}
			if _, err := auth.CurrentUser(c.Request().Context(), claims.UserID); err != nil {
				return next(c)
			}
			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated requests whose role is not in the
// allowed set. It must run after JWTAuth.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				return fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
			}
			if !allowed[claims.Role] {
				return fmt.Errorf("%w: insufficient role", domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// GetClaims extracts the verified token claims from the request context.
func GetClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(contextKeyClaims).(*service.Claims)
	return claims, ok
}
