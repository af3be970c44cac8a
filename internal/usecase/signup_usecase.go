package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"
	"go-signup-backend/pkg/email"
	"go-signup-backend/pkg/identity"
	"go-signup-backend/pkg/logger"
)

// SignupResult is the outcome of a completed registration.
type SignupResult struct {
	User       *domain.User    `json:"user"`
	Profile    *domain.Profile `json:"profile"`
	RedirectTo string          `json:"redirect_to"`
}

type SignupUsecase interface {
	// Complete runs the whole account-creation flow for the session. On any
	// failure the wizard state is left untouched so the user can retry;
	// state is cleared only after every required effect has succeeded.
	Complete(ctx context.Context, sessionID, accessToken string) (*SignupResult, error)
}

type signupUsecase struct {
	users    domain.UserRepository
	profiles domain.ProfileRepository
	wizard   domain.WizardRepository
	idp      IdentityService
	links    *LinkRegistry
	mailer   WelcomeMailer
	provider string
	homeURL  string
}

func NewSignupUsecase(
	users domain.UserRepository,
	profiles domain.ProfileRepository,
	wizard domain.WizardRepository,
	idp IdentityService,
	links *LinkRegistry,
	mailer WelcomeMailer,
	provider string,
	homeURL string,
) SignupUsecase {
	return &signupUsecase{
		users:    users,
		profiles: profiles,
		wizard:   wizard,
		idp:      idp,
		links:    links,
		mailer:   mailer,
		provider: provider,
		homeURL:  homeURL,
	}
}

func (u *signupUsecase) Complete(ctx context.Context, sessionID, accessToken string) (*SignupResult, error) {
	state, err := u.wizard.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step1 == nil || state.Step2 == nil {
		return nil, apperror.BadRequest("Signup steps are incomplete")
	}
	step1, step2 := state.Step1, state.Step2

	// The current identity session is the source of truth for an attached
	// OAuth identity. It may have been attached outside this wizard run, so
	// the stored step 3 selections are not consulted for this decision.
	var social *identity.Identity
	var socialEmail, socialUserID string
	if accessToken != "" {
		authUser, err := u.idp.GetUser(ctx, accessToken)
		if err != nil {
			// An unreadable session means no usable attached identity; the
			// password path below still runs.
			logger.Log.Warn("could not inspect identity session", "error", err)
		} else if id, ok := authUser.IdentityFor(u.provider); ok {
			social = &id
			socialUserID = authUser.ID
			socialEmail = id.Email()
			if socialEmail == "" {
				socialEmail = authUser.Email
			}
		}
	}

	now := time.Now()
	var linkedUser *domain.User

	if social != nil {
		// Reconcile against an existing account: email match first, then the
		// social identifier. A match means this person already has a record
		// and the signup converges onto it instead of inserting a duplicate.
		rec, err := u.users.GetByEmail(ctx, socialEmail)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			rec, err = u.users.GetBySocialID(ctx, socialEmail)
			if err != nil {
				return nil, err
			}
		}

		if rec != nil {
			rec.EmailVerified = true
			rec.SocialID = &socialEmail
			if !rec.HasProvider(u.provider) {
				rec.LinkedProviders = append(rec.LinkedProviders, u.provider)
			}
			rec.UpdatedAt = now
			if err := u.users.Update(ctx, rec); err != nil {
				return nil, err
			}
			linkedUser = rec
		} else {
			nu := &domain.User{
				ID:              socialUserID,
				Username:        step1.Username,
				Email:           step1.Email,
				Phone:           step1.Phone,
				EmailVerified:   true,
				SocialID:        &socialEmail,
				LinkedProviders: []string{u.provider},
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := u.users.Create(ctx, nu); err != nil {
				return nil, err
			}
			linkedUser = nu
		}
	}

	// The password account is created regardless of any OAuth link; the
	// email+password credentials from step 1 must always work afterwards.
	authUser, _, err := u.idp.SignUp(ctx, step1.Email, step1.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			return nil, apperror.Conflict("This email is already registered")
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, apperror.BadRequest("Password does not meet the security requirements")
		default:
			return nil, apperror.New(http.StatusBadGateway, "Account creation failed, please try again", err)
		}
	}

	usr := linkedUser
	if usr == nil {
		// Lookup before insert keeps a retried completion from duplicating
		// the local record.
		existing, err := u.users.GetByEmail(ctx, step1.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			usr = existing
		} else {
			usr = &domain.User{
				ID:            authUser.ID,
				Username:      step1.Username,
				Email:         step1.Email,
				Phone:         step1.Phone,
				EmailVerified: authUser.EmailConfirmedAt != nil,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := u.users.Create(ctx, usr); err != nil {
				return nil, err
			}
		}
	}

	profile := &domain.Profile{
		UserID:          usr.ID,
		BirthDate:       step2.BirthDate,
		Gender:          step2.Gender,
		ProfileImageURL: step2.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	if u.mailer != nil && u.mailer.IsConfigured() {
		mail := email.WelcomeEmailData{
			Username: usr.Username,
			Email:    usr.Email,
			HomeURL:  u.homeURL,
		}
		if err := u.mailer.SendWelcome(mail); err != nil {
			logger.Log.Warn("welcome email failed", "email", usr.Email, "error", err)
		}
	}

	// Everything required has succeeded; only now is the wizard state gone.
	if err := u.wizard.ResetAllData(ctx, sessionID); err != nil {
		logger.Log.Error("failed to clear wizard state after signup", "session_id", sessionID, "error", err)
	}
	if u.links != nil {
		u.links.CloseSession(sessionID)
	}

	return &SignupResult{User: usr, Profile: profile, RedirectTo: "/home"}, nil
}
