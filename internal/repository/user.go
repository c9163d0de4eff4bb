package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sumire/blog/internal/domain"
)

// UserRepository handles user data access operations.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create inserts a new user. The caller is responsible for normalizing the
// email and hashing the password beforehand. Returns domain.ErrConflict if
// the email is already taken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = newID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := insertOne(ctx, r.store.col(colUsers), user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := findOne[domain.User](ctx, r.store.col(colUsers), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}

// FindByEmail retrieves a user by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := findOne[domain.User](ctx, r.store.col(colUsers), bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// FindByProviderID retrieves a user by their OAuth provider and provider-assigned id.
func (r *UserRepository) FindByProviderID(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}
	user, err := findOne[domain.User](ctx, r.store.col(colUsers), bson.D{{Key: field, Value: providerID}})
	if err != nil {
		return nil, fmt.Errorf("find user by %s id: %w", provider, err)
	}
	return user, nil
}

// SetRefreshToken stores the current refresh token for the user, replacing
// any previous one. A single atomic document update; this is what makes the
// previous session's refresh token unusable.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	err := updateByID(ctx, r.store.col(colUsers), userID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: token},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token. It does not fail when
// the user does not exist or has no session; logout is idempotent.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.store.col(colUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: 1}}}},
	)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// LinkProvider attaches a provider-assigned id (and optionally an avatar) to
// an existing account.
func (r *UserRepository) LinkProvider(ctx context.Context, userID string, provider domain.AuthProvider, providerID, avatar string) error {
	field, err := providerField(provider)
	if err != nil {
		return err
	}
	set := bson.D{
		{Key: field, Value: providerID},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	if avatar != "" {
		set = append(set, bson.E{Key: "avatar", Value: avatar})
	}
	err = updateByID(ctx, r.store.col(colUsers), userID, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("link %s account: %w", provider, err)
	}
	return nil
}

// UserUpdate carries the admin-editable fields; nil means "leave unchanged".
type UserUpdate struct {
	Name            *string
	Role            *domain.Role
	IsEmailVerified *bool
}

// Update applies an admin edit to a user record.
func (r *UserRepository) Update(ctx context.Context, userID string, upd UserUpdate) (*domain.User, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *upd.Role})
	}
	if upd.IsEmailVerified != nil {
		set = append(set, bson.E{Key: "isEmailVerified", Value: *upd.IsEmailVerified})
	}

	if err := updateByID(ctx, r.store.col(colUsers), userID, bson.D{{Key: "$set", Value: set}}); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return r.FindByID(ctx, userID)
}

// Delete removes a user record.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	if err := deleteByID(ctx, r.store.col(colUsers), userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List returns users sorted by creation date, newest first.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	users, err := findMany[domain.User](ctx, r.store.col(colUsers), bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the total number of users, optionally only verified ones.
func (r *UserRepository) Count(ctx context.Context, verifiedOnly bool) (int64, error) {
	filter := bson.D{}
	if verifiedOnly {
		filter = bson.D{{Key: "isEmailVerified", Value: true}}
	}
	n, err := r.store.col(colUsers).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func providerField(provider domain.AuthProvider) (string, error) {
	switch provider {
	case domain.AuthProviderGoogle:
		return "googleId", nil
	case domain.AuthProviderFacebook:
		return "facebookId", nil
	}
	return "", fmt.Errorf("unknown auth provider %q", provider)
}
