package usecase

import (
	"context"

	"go-signup-backend/pkg/email"
	"go-signup-backend/pkg/identity"
)

// IdentityService is the narrow contract this service consumes from the
// remote identity provider. *identity.Client satisfies it.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (*identity.AuthUser, *identity.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	GetUser(ctx context.Context, accessToken string) (*identity.AuthUser, error)
	SignOut(ctx context.Context, accessToken string) error
	AuthorizeURL(provider, redirectTo string) string
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
}

// WelcomeMailer sends the post-signup acknowledgment. *email.EmailService
// satisfies it.
type WelcomeMailer interface {
	IsConfigured() bool
	SendWelcome(data email.WelcomeEmailData) error
}
