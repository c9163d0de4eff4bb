package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/service"
)

// PostHandler handles blog post endpoints.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type postRequest struct {
	Title     string   `json:"title" validate:"required,min=3,max=200"`
	Content   string   `json:"content" validate:"required"`
	Tags      []string `json:"tags" validate:"max=10"`
	Published bool     `json:"published"`
}

// Create stores a new post authored by the current user.
func (h *PostHandler) Create(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), claims.UserID, service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, post)
}

// List returns published posts.
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.posts.ListPublished(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, posts)
}

// Get returns a single post.
func (h *PostHandler) Get(c echo.Context) error {
	claims, _ := GetClaims(c)
	post, err := h.posts.Get(c.Request().Context(), c.Param("id"), claims)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, post)
}

// Update edits a post.
func (h *PostHandler) Update(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), c.Param("id"), claims, service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, post)
}

// Delete removes a post.
func (h *PostHandler) Delete(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := h.posts.Delete(c.Request().Context(), c.Param("id"), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Envelope{})
}
