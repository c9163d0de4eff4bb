package service

import (
	"context"
	"fmt"

	"github.com/sumire/blog/internal/domain"
)

// PostStore defines the post data access interface consumed by PostService.
type PostStore interface {
	Create(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	ListPublished(ctx context.Context) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// PostInput carries the writable fields of a post.
type PostInput struct {
	Title     string
	Content   string
	Tags      []string
	Published bool
}

// PostService handles blog post operations.
type PostService struct {
	posts PostStore
}

// NewPostService creates a new PostService.
func NewPostService(posts PostStore) *PostService {
	return &PostService{posts: posts}
}

// Create stores a new post authored by the given user.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (*domain.Post, error) {
	post := &domain.Post{
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  authorID,
		Tags:      in.Tags,
		Published: in.Published,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPublished returns published posts, newest first.
func (s *PostService) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	return s.posts.ListPublished(ctx)
}

// Get returns a post by id. Unpublished posts are visible only to their
// author and admins.
func (s *PostService) Get(ctx context.Context, id string, viewer *Claims) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published && !canManage(post.AuthorID, viewer) {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

// Update edits a post on behalf of its author or an admin.
func (s *PostService) Update(ctx context.Context, id string, actor *Claims, in PostInput) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(post.AuthorID, actor) {
		return nil, fmt.Errorf("%w: only the author can edit this post", domain.ErrForbidden)
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Tags = in.Tags
	post.Published = in.Published

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post on behalf of its author or an admin.
func (s *PostService) Delete(ctx context.Context, id string, actor *Claims) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(post.AuthorID, actor) {
		return fmt.Errorf("%w: only the author can delete this post", domain.ErrForbidden)
	}
	return s.posts.Delete(ctx, id)
}

// canManage reports whether the actor owns the resource or is an admin.
func canManage(ownerID string, actor *Claims) bool {
	if actor == nil {
		return false
	}
	return actor.UserID == ownerID || actor.Role == domain.RoleAdmin
}
