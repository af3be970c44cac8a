package usecase

import (
	"context"
	"net/http"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"
	"go-signup-backend/pkg/security"

	"github.com/go-playground/validator/v10"
)

type wizardUsecase struct {
	repo     domain.WizardRepository
	avatars  domain.AvatarStore
	validate *validator.Validate
}

func NewWizardUsecase(repo domain.WizardRepository, avatars domain.AvatarStore, validate *validator.Validate) domain.WizardUsecase {
	return &wizardUsecase{
		repo:     repo,
		avatars:  avatars,
		validate: validate,
	}
}

func (u *wizardUsecase) State(ctx context.Context, sessionID string) (*domain.WizardState, error) {
	return u.repo.Get(ctx, sessionID)
}

func (u *wizardUsecase) SubmitStep1(ctx context.Context, sessionID string, data *domain.Step1Data) error {
	if err := u.validate.Struct(data); err != nil {
		return apperror.New(http.StatusBadRequest, "Validation failed", err)
	}

	state, err := u.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	// Schema validity alone is not enough: both uniqueness checks must have
	// settled and passed, or the submit is rejected without touching state.
	if !state.UsernameChecked || !state.UsernameValid {
		return apperror.BadRequest("Please verify username availability before continuing")
	}
	if !state.EmailChecked || !state.EmailValid {
		return apperror.BadRequest("Please verify email availability before continuing")
	}

	if err := u.repo.SetStep1Data(ctx, sessionID, data); err != nil {
		return err
	}
	return u.repo.SetCurrentStep(ctx, sessionID, 2)
}

func (u *wizardUsecase) SubmitStep2(ctx context.Context, sessionID string, data *domain.Step2Data, img *domain.UploadedImage) error {
	if err := u.validate.Struct(data); err != nil {
		return apperror.New(http.StatusBadRequest, "Validation failed", err)
	}

	state, err := u.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if state.Step1 == nil {
		return apperror.BadRequest("Complete step 1 before submitting your profile")
	}

	if img != nil && len(img.Data) > 0 {
		if res := security.ValidateProfileImage(img.FileName, img.Data, img.MIME); !res.Valid {
			return apperror.BadRequest(res.Error)
		}
		if u.avatars == nil {
			return apperror.New(http.StatusServiceUnavailable, "Profile image uploads are not available", nil)
		}
		url, err := u.avatars.Upload(ctx, sessionID, img.FileName, img.MIME, img.Data)
		if err != nil {
			return apperror.New(http.StatusBadGateway, "Failed to upload profile image", err)
		}
		data.ProfileImageURL = url
	}

	if err := u.repo.SetStep2Data(ctx, sessionID, data); err != nil {
		return err
	}
	return u.repo.SetCurrentStep(ctx, sessionID, 3)
}

func (u *wizardUsecase) SubmitStep3(ctx context.Context, sessionID string, data *domain.Step3Data) error {
	if data == nil {
		data = &domain.Step3Data{}
	}
	return u.repo.SetStep3Data(ctx, sessionID, data)
}

func (u *wizardUsecase) Step3Guard(ctx context.Context, sessionID string) (int, error) {
	state, err := u.repo.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if state.Step1 == nil {
		return 1, nil
	}
	if state.Step2 == nil {
		return 2, nil
	}
	return 0, nil
}

func (u *wizardUsecase) GoToStep(ctx context.Context, sessionID string, step int) error {
	if step < 1 || step > 3 {
		return apperror.BadRequest("Step must be between 1 and 3")
	}
	return u.repo.SetCurrentStep(ctx, sessionID, step)
}

func (u *wizardUsecase) Reset(ctx context.Context, sessionID string) error {
	return u.repo.ResetAllData(ctx, sessionID)
}
