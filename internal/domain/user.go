package domain

import (
	"strings"
	"time"
)

// Role controls what a user is allowed to do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AuthProvider represents an OAuth provider.
type AuthProvider string

const (
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

// User represents one account. PasswordHash and RefreshToken are never
// serialized to API responses; they only travel between the store and the
// auth service.
type User struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Email           string    `json:"email" bson:"email"`
	PasswordHash    string    `json:"-" bson:"password,omitempty"`
	Role            Role      `json:"role" bson:"role"`
	Avatar          string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	IsEmailVerified bool      `json:"isEmailVerified" bson:"isEmailVerified"`
	GoogleID        string    `json:"-" bson:"googleId,omitempty"`
	FacebookID      string    `json:"-" bson:"facebookId,omitempty"`
	RefreshToken    string    `json:"-" bson:"refreshToken,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasPassword reports whether the account can log in with credentials.
// OAuth-only accounts have no password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// LinkedProviderID returns the linked id for the given provider, if any.
func (u *User) LinkedProviderID(provider AuthProvider) string {
	switch provider {
	case AuthProviderGoogle:
		return u.GoogleID
	case AuthProviderFacebook:
		return u.FacebookID
	}
	return ""
}

// LinkProvider records the provider-assigned id on the account.
func (u *User) LinkProvider(provider AuthProvider, id string) {
	switch provider {
	case AuthProviderGoogle:
		u.GoogleID = id
	case AuthProviderFacebook:
		u.FacebookID = id
	}
}

// NormalizeEmail lowercases and trims an email so it can serve as a
// case-insensitive unique key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OAuthProfile is the transient identity received from a provider callback.
// It is used only to resolve or create a User and is never stored verbatim.
type OAuthProfile struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}
