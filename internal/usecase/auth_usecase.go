package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"
	"go-signup-backend/pkg/identity"
	"go-signup-backend/pkg/logger"
)

// LoginResult is the session plus local records returned on sign-in.
type LoginResult struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"`
	User         *domain.User    `json:"user"`
	Profile      *domain.Profile `json:"profile,omitempty"`
}

// OAuthCallbackResult tells the callback handler what the round-trip meant
// and where to send the browser next.
type OAuthCallbackResult struct {
	// Mode is "link" when the round-trip attached an identity mid-wizard,
	// "login" when it signed an existing account in.
	Mode        string       `json:"mode"`
	AccessToken string       `json:"-"`
	User        *domain.User `json:"user,omitempty"`
	RedirectTo  string       `json:"redirect_to"`
}

type AuthUsecase interface {
	// Login accepts an email address or a username as the identifier.
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, *domain.Profile, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, accessToken, newPassword string) error
	OAuthCallback(ctx context.Context, sessionID, accessToken string) (*OAuthCallbackResult, error)
}

type authUsecase struct {
	users       domain.UserRepository
	profiles    domain.ProfileRepository
	wizard      domain.WizardRepository
	idp         IdentityService
	hub         *identity.Hub
	provider    string
	frontendURL string
}

func NewAuthUsecase(
	users domain.UserRepository,
	profiles domain.ProfileRepository,
	wizard domain.WizardRepository,
	idp IdentityService,
	hub *identity.Hub,
	provider string,
	frontendURL string,
) AuthUsecase {
	return &authUsecase{
		users:       users,
		profiles:    profiles,
		wizard:      wizard,
		idp:         idp,
		hub:         hub,
		provider:    provider,
		frontendURL: frontendURL,
	}
}

func (u *authUsecase) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.BadRequest("Identifier and password are required")
	}

	email := identifier
	if !strings.Contains(identifier, "@") {
		// Username login resolves to the stored email first.
		rec, err := u.users.GetByUsername(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		email = rec.Email
	}

	session, err := u.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, apperror.New(http.StatusBadGateway, "Sign-in is temporarily unavailable", err)
	}

	usr, err := u.users.GetByID(ctx, session.User.ID)
	if err != nil {
		return nil, err
	}
	if usr == nil {
		usr, err = u.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	if usr == nil {
		// The identity service knows this account but no local record exists.
		// Surface the session with a minimal view rather than failing login.
		usr = &domain.User{
			ID:            session.User.ID,
			Email:         session.User.Email,
			EmailVerified: session.User.EmailConfirmedAt != nil,
			CreatedAt:     session.User.CreatedAt,
			UpdatedAt:     session.User.UpdatedAt,
		}
	}

	profile, err := u.profiles.GetByUserID(ctx, usr.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User:         usr,
		Profile:      profile,
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := u.idp.SignOut(ctx, accessToken); err != nil {
		logger.Log.Warn("sign-out call failed", "error", err)
	}
	return nil
}

func (u *authUsecase) CurrentUser(ctx context.Context, userID string) (*domain.User, *domain.Profile, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if usr == nil {
		return nil, nil, apperror.NotFound("User not found")
	}
	profile, err := u.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return usr, profile, nil
}

func (u *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.BadRequest("Email is required")
	}
	if err := u.idp.RequestPasswordReset(ctx, email, u.frontendURL+"/reset-password"); err != nil {
		// Do not reveal whether the address exists.
		logger.Log.Warn("password reset request failed", "error", err)
	}
	return nil
}

func (u *authUsecase) ResetPassword(ctx context.Context, accessToken, newPassword string) error {
	if accessToken == "" {
		return apperror.Unauthorized("A valid reset session is required")
	}
	if err := u.idp.UpdatePassword(ctx, accessToken, newPassword); err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			return apperror.BadRequest("Password does not meet the security requirements")
		}
		if errors.Is(err, identity.ErrUnauthorized) {
			return apperror.Unauthorized("Reset session is invalid or expired")
		}
		return apperror.New(http.StatusBadGateway, "Could not update the password", err)
	}
	return nil
}

// OAuthCallback interprets the provider round-trip. Mid-wizard it records the
// link and sends the browser back to step 3; otherwise it is a login attempt
// and only already-registered accounts are allowed through.
func (u *authUsecase) OAuthCallback(ctx context.Context, sessionID, accessToken string) (*OAuthCallbackResult, error) {
	if accessToken == "" {
		return nil, apperror.BadRequest("Missing access token in callback")
	}

	authUser, err := u.idp.GetUser(ctx, accessToken)
	if err != nil || authUser.Email == "" {
		_ = u.idp.SignOut(ctx, accessToken)
		return nil, apperror.Unauthorized("Could not retrieve account information from the provider")
	}

	provEmail := authUser.Email
	provName := ""
	if id, ok := authUser.IdentityFor(u.provider); ok {
		if e := id.Email(); e != "" {
			provEmail = e
		}
		provName = id.Name()
	}

	state, err := u.wizard.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step1 != nil || state.Step2 != nil {
		// Linking flow: a signup is underway in this session.
		u.hub.Publish(identity.SessionEvent{
			Type:      identity.EventSignedIn,
			SessionID: sessionID,
			Provider:  u.provider,
			Email:     provEmail,
			Name:      provName,
		})
		return &OAuthCallbackResult{
			Mode:        "link",
			AccessToken: accessToken,
			RedirectTo:  "/signup/step3",
		}, nil
	}

	// Login flow: resolve the account by email, then by social identifier.
	rec, err := u.users.GetByEmail(ctx, authUser.Email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec, err = u.users.GetBySocialID(ctx, provEmail)
		if err != nil {
			return nil, err
		}
	}
	if rec == nil {
		// Unknown account: terminate the provider session so a half-signed-in
		// state cannot linger, then bounce to the entry screen.
		_ = u.idp.SignOut(ctx, accessToken)
		u.hub.Publish(identity.SessionEvent{
			Type:      identity.EventSignedOut,
			SessionID: sessionID,
		})
		return nil, apperror.Forbidden("This account is not registered. Please sign up first.")
	}

	if !rec.HasProvider(u.provider) {
		rec.LinkedProviders = append(rec.LinkedProviders, u.provider)
		rec.SocialID = &provEmail
		rec.UpdatedAt = time.Now()
		if err := u.users.Update(ctx, rec); err != nil {
			logger.Log.Warn("failed to record provider link on login", "user_id", rec.ID, "error", err)
		}
	}

	return &OAuthCallbackResult{
		Mode:        "login",
		AccessToken: accessToken,
		User:        rec,
		RedirectTo:  "/home",
	}, nil
}
