package domain

type contextKey string

const (
	KeyUserID        contextKey = "UserID"
	KeyUserEmail     contextKey = "UserEmail"
	KeyWizardSession contextKey = "WizardSession"
	KeyRequestID     contextKey = "RequestID"
)
