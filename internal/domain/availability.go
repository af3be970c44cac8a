package domain

import "context"

// AvailabilityResult reports the outcome of a username/email uniqueness
// check. Valid is meaningful only when Checking is false.
type AvailabilityResult struct {
	Checking bool   `json:"checking"`
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
}

type AvailabilityUsecase interface {
	CheckUsername(ctx context.Context, sessionID, value string) (AvailabilityResult, error)
	CheckEmail(ctx context.Context, sessionID, value string) (AvailabilityResult, error)
}
