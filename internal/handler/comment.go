package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

// CommentHandler handles comment endpoints.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Create adds a comment to a post.
func (h *CommentHandler) Create(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.Request().Context(), c.Param("id"), claims.UserID, req.Content)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, comment)
}

// List returns a post's comments.
func (h *CommentHandler) List(c echo.Context) error {
	comments, err := h.comments.ListByPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, comments)
}

// Delete removes a comment.
func (h *CommentHandler) Delete(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := h.comments.Delete(c.Request().Context(), c.Param("id"), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Envelope{})
}
