package service

import (
	"context"
	"fmt"

	"github.com/sumire/blog/internal/domain"
	"github.com/sumire/blog/internal/repository"
)

// AdminUserStore extends user access with the management operations only
// admins may perform.
type AdminUserStore interface {
	UserStore
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, userID string, upd repository.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context, verifiedOnly bool) (int64, error)
}

// Counter reports the size of a collection.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// DashboardStats summarizes platform activity for the admin dashboard.
type DashboardStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	VerifiedUsers int64 `json:"verifiedUsers"`
	TotalPosts    int64 `json:"totalPosts"`
	TotalComments int64 `json:"totalComments"`
}

// AdminService handles user management and moderation.
type AdminService struct {
	users    AdminUserStore
	posts    Counter
	comments Counter
}

// NewAdminService creates a new AdminService.
func NewAdminService(users AdminUserStore, posts, comments Counter) *AdminService {
	return &AdminService{users: users, posts: posts, comments: comments}
}

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	totalUsers, err := s.users.Count(ctx, false)
	if err != nil {
		return nil, err
	}
	verifiedUsers, err := s.users.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	totalPosts, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalComments, err := s.comments.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalUsers:    totalUsers,
		VerifiedUsers: verifiedUsers,
		TotalPosts:    totalPosts,
		TotalComments: totalComments,
	}, nil
}

// ListUsers returns all accounts, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// GetUser returns a single account.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateUser applies an admin edit. This is the only path that mutates a
// user's role or email-verified flag.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, upd repository.UserUpdate) (*domain.User, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", domain.ErrInvalidInput, *upd.Role)
	}
	return s.users.Update(ctx, userID, upd)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrInvalidInput)
	}
	return s.users.Delete(ctx, userID)
}
