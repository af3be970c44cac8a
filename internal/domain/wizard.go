package domain

import "context"

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// Step1Data is the credentials fragment of the wizard.
type Step1Data struct {
	Username        string `json:"username" validate:"required,min=4,max=20,alphanum,not_all_digits"`
	Email           string `json:"email" validate:"required,max=255,email"`
	Password        string `json:"password" validate:"required,min=8,max=20,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"required,max=20,mobile_phone"`
}

// Step2Data is the profile fragment. The selected image file itself is never
// part of wizard state; only its data-URL preview and, once uploaded, the
// remote URL are carried so the state stays JSON-serializable.
type Step2Data struct {
	BirthDate           string `json:"birth_date" validate:"required,birth_date"`
	Gender              Gender `json:"gender" validate:"required,oneof=male female other prefer_not_to_say"`
	ProfileImagePreview string `json:"profile_image_preview,omitempty"`
	ProfileImageURL     string `json:"profile_image_url,omitempty"`
}

// SNSConnection records one social-account selection made on step 3.
type SNSConnection struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
	AccountID string `json:"account_id,omitempty"`
}

// Step3Data holds the optional social-connection selections. Not required
// for completion.
type Step3Data struct {
	Connections []SNSConnection `json:"connections,omitempty"`
}

// WizardState is the session-scoped record of everything the wizard has
// collected. Check-status flags are meaningful only while the paired
// *Checked flag is true; they are not persisted, so a fresh session must
// re-run the availability checks.
type WizardState struct {
	Step1 *Step1Data `json:"step1"`
	Step2 *Step2Data `json:"step2"`
	Step3 *Step3Data `json:"step3"`

	UsernameChecked bool `json:"username_checked"`
	UsernameValid   bool `json:"username_valid"`
	EmailChecked    bool `json:"email_checked"`
	EmailValid      bool `json:"email_valid"`

	CurrentStep int `json:"current_step"`
}

func NewWizardState() *WizardState {
	return &WizardState{CurrentStep: 1}
}

// WizardRepository is the durable wizard state store. All operations are
// idempotent; only step data and the current step survive a restart.
type WizardRepository interface {
	Get(ctx context.Context, sessionID string) (*WizardState, error)
	SetStep1Data(ctx context.Context, sessionID string, data *Step1Data) error
	SetStep2Data(ctx context.Context, sessionID string, data *Step2Data) error
	SetStep3Data(ctx context.Context, sessionID string, data *Step3Data) error
	SetUsernameCheckStatus(ctx context.Context, sessionID string, checked, valid bool) error
	SetEmailCheckStatus(ctx context.Context, sessionID string, checked, valid bool) error
	SetCurrentStep(ctx context.Context, sessionID string, step int) error
	ResetAllData(ctx context.Context, sessionID string) error
}

// UploadedImage is a profile image received from the client. Transient:
// its bytes never enter the wizard store.
type UploadedImage struct {
	FileName string
	MIME     string
	Data     []byte
}

// AvatarStore uploads a profile image and returns its public URL.
type AvatarStore interface {
	Upload(ctx context.Context, ownerID string, filename, mimeType string, data []byte) (string, error)
}

type WizardUsecase interface {
	State(ctx context.Context, sessionID string) (*WizardState, error)
	SubmitStep1(ctx context.Context, sessionID string, data *Step1Data) error
	SubmitStep2(ctx context.Context, sessionID string, data *Step2Data, img *UploadedImage) error
	SubmitStep3(ctx context.Context, sessionID string, data *Step3Data) error
	// Step3Guard returns the step to redirect to (1 or 2) when prior step
	// data is missing, or 0 when step 3 may be entered.
	Step3Guard(ctx context.Context, sessionID string) (int, error)
	GoToStep(ctx context.Context, sessionID string, step int) error
	Reset(ctx context.Context, sessionID string) error
}
