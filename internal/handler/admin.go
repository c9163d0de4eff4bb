package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/repository"
	"github.com/sumire/blog/internal/service"
)

// AdminHandler handles admin-only endpoints. All routes are mounted behind
// RequireRole(domain.RoleAdmin).
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Stats returns dashboard counters.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.admin.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, stats)
}

// ListUsers returns all accounts.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, users)
}

// GetUser returns a single account.
func (h *AdminHandler) GetUser(c echo.Context) error {
	user, err := h.admin.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

type updateUserRequest struct {
	Name            *string      `json:"name" validate:"omitempty,min=2,max=50"`
	Role            *domain.Role `json:"role"`
	IsEmailVerified *bool        `json:"isEmailVerified"`
}

// UpdateUser edits a user's name, role or verified flag.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.admin.UpdateUser(c.Request().Context(), c.Param("id"), repository.UserUpdate{
		Name:            req.Name,
		Role:            req.Role,
		IsEmailVerified: req.IsEmailVerified,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := h.admin.DeleteUser(c.Request().Context(), c.Param("id"), claims.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Envelope{})
}
