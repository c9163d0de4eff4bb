package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sumire/blog/internal/domain"
)

// CommentRepository handles comment data access operations.
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(store *Store) *CommentRepository {
	return &CommentRepository{store: store}
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	if comment.ID == "" {
		comment.ID = newID()
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now

	if err := insertOne(ctx, r.store.col(colComments), comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// FindByID retrieves a comment by its ID.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	comment, err := findOne[domain.Comment](ctx, r.store.col(colComments), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	return comment, nil
}

// ListByPost returns a post's comments, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	comments, err := findMany[domain.Comment](ctx, r.store.col(colComments),
		bson.D{{Key: "post", Value: postID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	if err := deleteByID(ctx, r.store.col(colComments), id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Count returns the total number of comments.
func (r *CommentRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.col(colComments).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
