package service

import (
	"context"
	"fmt"

	"github.com/sumire/blog/internal/domain"
)

// CommentStore defines the comment data access interface consumed by
// CommentService.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// CommentService handles comment operations.
type CommentService struct {
	comments CommentStore
	posts    PostStore
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentStore, posts PostStore) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// Create adds a comment to an existing post.
func (s *CommentService) Create(ctx context.Context, postID, authorID, content string) (*domain.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByPost returns a post's comments, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// Delete removes a comment on behalf of its author or an admin.
func (s *CommentService) Delete(ctx context.Context, id string, actor *Claims) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(comment.AuthorID, actor) {
		return fmt.Errorf("%w: only the author can delete this comment", domain.ErrForbidden)
	}
	return s.comments.Delete(ctx, id)
}
