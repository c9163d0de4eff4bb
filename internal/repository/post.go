package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sumire/blog/internal/domain"
)

// PostRepository handles post data access operations.
type PostRepository struct {
	store *Store
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(store *Store) *PostRepository {
	return &PostRepository{store: store}
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	if post.ID == "" {
		post.ID = newID()
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := insertOne(ctx, r.store.col(colPosts), post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// FindByID retrieves a post by its ID.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	post, err := findOne[domain.Post](ctx, r.store.col(colPosts), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", id, err)
	}
	return post, nil
}

// ListPublished returns published posts, newest first.
func (r *PostRepository) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	posts, err := findMany[domain.Post](ctx, r.store.col(colPosts),
		bson.D{{Key: "published", Value: true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Update replaces the editable fields of a post.
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	err := updateByID(ctx, r.store.col(colPosts), post.ID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "title", Value: post.Title},
			{Key: "content", Value: post.Content},
			{Key: "tags", Value: post.Tags},
			{Key: "published", Value: post.Published},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post and its comments.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	if err := deleteByID(ctx, r.store.col(colPosts), id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if _, err := r.store.col(colComments).DeleteMany(ctx, bson.D{{Key: "post", Value: id}}); err != nil {
		return fmt.Errorf("delete post comments: %w", err)
	}
	return nil
}

// Count returns the total number of posts.
func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.col(colPosts).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
