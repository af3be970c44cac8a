package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/apperror"
	"go-signup-backend/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seededWizard(t *testing.T) domain.WizardRepository {
	t.Helper()
	store := newWizardStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetStep1Data(ctx, "sess-c", validStep1()))
	require.NoError(t, store.SetStep2Data(ctx, "sess-c", validStep2()))
	require.NoError(t, store.SetCurrentStep(ctx, "sess-c", 3))
	return store
}

func newSignupUC(users *mockUserRepo, profiles *mockProfileRepo, store domain.WizardRepository, idp *mockIdentityService) usecase.SignupUsecase {
	return usecase.NewSignupUsecase(users, profiles, store, idp, nil, nil, "github", "http://localhost:3000/home")
}

func TestCompleteWithoutOAuthCreatesAccountAndClearsState(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	profiles := new(mockProfileRepo)
	idp := new(mockIdentityService)
	ctx := context.Background()

	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(&identity.AuthUser{ID: "auth-1", Email: "new@example.com"}, nil, nil).Once()
	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "auth-1" && u.Username == "validUser1" && u.SocialID == nil
	})).Return(nil).Once()
	profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.UserID == "auth-1" && p.BirthDate == "2000-05-20"
	})).Return(nil).Once()

	uc := newSignupUC(users, profiles, store, idp)
	res, err := uc.Complete(ctx, "sess-c", "")
	require.NoError(t, err)
	assert.Equal(t, "/home", res.RedirectTo)
	assert.Equal(t, "auth-1", res.User.ID)

	// Success is the only path that clears the wizard.
	state, err := store.Get(ctx, "sess-c")
	require.NoError(t, err)
	assert.Nil(t, state.Step1)
	assert.Equal(t, 1, state.CurrentStep)

	idp.AssertNumberOfCalls(t, "SignUp", 1)
	users.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestCompleteRequiresBothSteps(t *testing.T) {
	store := newWizardStore(t)
	require.NoError(t, store.SetStep1Data(context.Background(), "sess-c", validStep1()))

	uc := newSignupUC(new(mockUserRepo), new(mockProfileRepo), store, new(mockIdentityService))
	_, err := uc.Complete(context.Background(), "sess-c", "")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func TestCompleteReconcilesLinkedIdentityOntoExistingAccount(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	profiles := new(mockProfileRepo)
	idp := new(mockIdentityService)
	ctx := context.Background()

	existing := &domain.User{
		ID:       "old-1",
		Username: "oldtimer",
		Email:    "linked@example.com",
	}

	idp.On("GetUser", mock.Anything, "tok-abc").Return(&identity.AuthUser{
		ID:    "auth-9",
		Email: "linked@example.com",
		Identities: []identity.Identity{{
			Provider:     "github",
			IdentityData: map[string]any{"email": "linked@example.com", "name": "Old Timer"},
		}},
	}, nil).Once()

	// Email lookup matches, so the existing record is updated in place.
	users.On("GetByEmail", mock.Anything, "linked@example.com").Return(existing, nil).Once()
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "old-1" && u.EmailVerified && u.HasProvider("github") &&
			u.SocialID != nil && *u.SocialID == "linked@example.com"
	})).Return(nil).Once()

	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(&identity.AuthUser{ID: "auth-new"}, nil, nil).Once()
	profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.UserID == "old-1"
	})).Return(nil).Once()

	uc := newSignupUC(users, profiles, store, idp)
	res, err := uc.Complete(ctx, "sess-c", "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "old-1", res.User.ID, "must converge on the existing record")

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}

func TestCompleteFallsBackToSocialIDLookup(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	profiles := new(mockProfileRepo)
	idp := new(mockIdentityService)

	social := "gh@example.com"
	existing := &domain.User{ID: "old-2", Email: "other@example.com", SocialID: &social}

	idp.On("GetUser", mock.Anything, "tok-x").Return(&identity.AuthUser{
		ID:    "auth-x",
		Email: "gh@example.com",
		Identities: []identity.Identity{{
			Provider:     "github",
			IdentityData: map[string]any{"email": "gh@example.com"},
		}},
	}, nil).Once()
	users.On("GetByEmail", mock.Anything, "gh@example.com").Return(nil, nil).Once()
	users.On("GetBySocialID", mock.Anything, "gh@example.com").Return(existing, nil).Once()
	users.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(&identity.AuthUser{ID: "auth-new"}, nil, nil).Once()
	profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	uc := newSignupUC(users, profiles, store, idp)
	res, err := uc.Complete(context.Background(), "sess-c", "tok-x")
	require.NoError(t, err)
	assert.Equal(t, "old-2", res.User.ID)
	users.AssertExpectations(t)
}

func TestCompleteFailureLeavesWizardStateIntact(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	profiles := new(mockProfileRepo)
	idp := new(mockIdentityService)
	ctx := context.Background()

	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(nil, nil, &identity.ServiceError{StatusCode: 500, Message: "boom"}).Once()

	uc := newSignupUC(users, profiles, store, idp)
	_, err := uc.Complete(ctx, "sess-c", "")
	require.Error(t, err)

	state, serr := store.Get(ctx, "sess-c")
	require.NoError(t, serr)
	require.NotNil(t, state.Step1, "failed completion must keep the wizard state")
	require.NotNil(t, state.Step2)
	assert.Equal(t, 3, state.CurrentStep)
}

func TestCompleteRetryAfterFailureCreatesExactlyOneRecord(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	profiles := new(mockProfileRepo)
	idp := new(mockIdentityService)
	ctx := context.Background()

	// First attempt: the profile write fails after the user row was created.
	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(&identity.AuthUser{ID: "auth-1", Email: "new@example.com"}, nil, nil).Twice()
	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil).Once()
	users.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	profiles.On("Upsert", mock.Anything, mock.Anything).
		Return(errors.New("db unavailable")).Once()

	uc := newSignupUC(users, profiles, store, idp)
	_, err := uc.Complete(ctx, "sess-c", "")
	require.Error(t, err)

	// Retry: the lookup now finds the row, so no second insert happens.
	users.On("GetByEmail", mock.Anything, "new@example.com").
		Return(&domain.User{ID: "auth-1", Username: "validUser1", Email: "new@example.com"}, nil).Once()
	profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := uc.Complete(ctx, "sess-c", "")
	require.NoError(t, err)
	assert.Equal(t, "auth-1", res.User.ID)

	users.AssertNumberOfCalls(t, "Create", 1)
}

func TestCompleteDuplicateEmailIsConflict(t *testing.T) {
	store := seededWizard(t)
	users := new(mockUserRepo)
	idp := new(mockIdentityService)

	idp.On("SignUp", mock.Anything, "new@example.com", "Abcdef1!").
		Return(nil, nil, identity.ErrDuplicateEmail).Once()

	uc := newSignupUC(users, new(mockProfileRepo), store, idp)
	_, err := uc.Complete(context.Background(), "sess-c", "")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Code)
}
