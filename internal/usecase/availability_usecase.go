package usecase

import (
	"context"
	"strings"
	"sync"

	"go-signup-backend/internal/domain"
)

const (
	msgUsernameTaken     = "This username is already taken"
	msgUsernameAvailable = "This username is available"
	msgEmailTaken        = "This email is already registered"
	msgEmailAvailable    = "This email is available"
	msgCheckError        = "An error occurred during the check"
)

type availabilityUsecase struct {
	users  domain.UserRepository
	wizard domain.WizardRepository

	// Imperative checks are tagged with a per-session, per-field sequence
	// number; a settlement older than the latest issued check must not be
	// recorded, or a slow "taken" response could overwrite a newer "free"
	// result.
	mu   sync.Mutex
	seqs map[string]uint64
}

func NewAvailabilityUsecase(users domain.UserRepository, wizard domain.WizardRepository) domain.AvailabilityUsecase {
	return &availabilityUsecase{
		users:  users,
		wizard: wizard,
		seqs:   make(map[string]uint64),
	}
}

func (u *availabilityUsecase) CheckUsername(ctx context.Context, sessionID, value string) (domain.AvailabilityResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		// Neutral reset; no remote lookup for empty input.
		if err := u.wizard.SetUsernameCheckStatus(ctx, sessionID, false, false); err != nil {
			return domain.AvailabilityResult{}, err
		}
		return domain.AvailabilityResult{}, nil
	}

	seq := u.issue(sessionID + "/username")

	existing, err := u.users.GetByUsername(ctx, value)

	var res domain.AvailabilityResult
	switch {
	case err != nil:
		res = domain.AvailabilityResult{Valid: false, Message: msgCheckError}
	case existing != nil:
		res = domain.AvailabilityResult{Valid: false, Message: msgUsernameTaken}
	default:
		res = domain.AvailabilityResult{Valid: true, Message: msgUsernameAvailable}
	}

	if u.isLatest(sessionID+"/username", seq) {
		if err := u.wizard.SetUsernameCheckStatus(ctx, sessionID, true, res.Valid); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (u *availabilityUsecase) CheckEmail(ctx context.Context, sessionID, value string) (domain.AvailabilityResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if err := u.wizard.SetEmailCheckStatus(ctx, sessionID, false, false); err != nil {
			return domain.AvailabilityResult{}, err
		}
		return domain.AvailabilityResult{}, nil
	}

	seq := u.issue(sessionID + "/email")

	existing, err := u.users.GetByEmail(ctx, value)

	var res domain.AvailabilityResult
	switch {
	case err != nil:
		res = domain.AvailabilityResult{Valid: false, Message: msgCheckError}
	case existing != nil:
		res = domain.AvailabilityResult{Valid: false, Message: msgEmailTaken}
	default:
		res = domain.AvailabilityResult{Valid: true, Message: msgEmailAvailable}
	}

	if u.isLatest(sessionID+"/email", seq) {
		if err := u.wizard.SetEmailCheckStatus(ctx, sessionID, true, res.Valid); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (u *availabilityUsecase) issue(key string) uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seqs[key]++
	return u.seqs[key]
}

func (u *availabilityUsecase) isLatest(key string, seq uint64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.seqs[key] == seq
}
