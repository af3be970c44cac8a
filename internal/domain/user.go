package domain

import (
	"context"
	"time"
)

// User is the account record. ID is the identity-service UUID; SocialID holds
// the email under which a linked OAuth identity is recognized.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	EmailVerified   bool      `json:"email_verified"`
	PhoneVerified   bool      `json:"phone_verified"`
	SocialID        *string   `json:"social_id,omitempty"`
	LinkedProviders []string  `json:"linked_providers,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasProvider reports whether the given OAuth provider is already linked.
func (u *User) HasProvider(provider string) bool {
	for _, p := range u.LinkedProviders {
		if p == provider {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySocialID(ctx context.Context, socialID string) (*User, error)
	Update(ctx context.Context, user *User) error
}
