package domain

import (
	"context"
	"time"
)

// Profile is the 1:1 companion record to User.
type Profile struct {
	UserID          string    `json:"user_id"`
	BirthDate       string    `json:"birth_date"`
	Gender          Gender    `json:"gender"`
	ProfileImageURL string    `json:"profile_image_url"`
	Bio             string    `json:"bio"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
	// Upsert creates the profile or updates it in place when one already
	// exists for the user. Used by the completion flow so retries converge.
	Upsert(ctx context.Context, profile *Profile) error
}
