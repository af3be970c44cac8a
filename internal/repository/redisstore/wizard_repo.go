package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces wizard state blobs in Redis.
const keyPrefix = "signup:wizard:"

// persistedState is the durable subset of WizardState. Check-status flags
// are deliberately excluded: a reload forces re-verification of username
// and email, which keeps stale availability results out of the store.
type persistedState struct {
	Step1       *domain.Step1Data `json:"step1"`
	Step2       *domain.Step2Data `json:"step2"`
	Step3       *domain.Step3Data `json:"step3"`
	CurrentStep int               `json:"current_step"`
}

type checkFlags struct {
	usernameChecked bool
	usernameValid   bool
	emailChecked    bool
	emailValid      bool
}

// WizardRepo stores the durable wizard subset as one JSON blob per session
// and keeps availability-check flags in process memory only.
type WizardRepo struct {
	rdb *redis.Client
	ttl time.Duration

	mu     sync.Mutex
	checks map[string]checkFlags
}

func NewWizardRepository(rdb *redis.Client, ttl time.Duration) *WizardRepo {
	return &WizardRepo{
		rdb:    rdb,
		ttl:    ttl,
		checks: make(map[string]checkFlags),
	}
}

func (r *WizardRepo) key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *WizardRepo) Get(ctx context.Context, sessionID string) (*domain.WizardState, error) {
	state := domain.NewWizardState()

	raw, err := r.rdb.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.mergeFlags(sessionID, state)
			return state, nil
		}
		return nil, apperror.Internal(err)
	}

	var ps persistedState
	if err := json.Unmarshal(raw, &ps); err != nil {
		// A corrupt blob should not strand the user; start the wizard over.
		return state, nil
	}

	state.Step1 = ps.Step1
	state.Step2 = ps.Step2
	state.Step3 = ps.Step3
	if ps.CurrentStep >= 1 {
		state.CurrentStep = ps.CurrentStep
	}
	r.mergeFlags(sessionID, state)
	return state, nil
}

func (r *WizardRepo) SetStep1Data(ctx context.Context, sessionID string, data *domain.Step1Data) error {
	return r.mutate(ctx, sessionID, func(ps *persistedState) {
		ps.Step1 = data
	})
}

func (r *WizardRepo) SetStep2Data(ctx context.Context, sessionID string, data *domain.Step2Data) error {
	return r.mutate(ctx, sessionID, func(ps *persistedState) {
		ps.Step2 = data
	})
}

func (r *WizardRepo) SetStep3Data(ctx context.Context, sessionID string, data *domain.Step3Data) error {
	return r.mutate(ctx, sessionID, func(ps *persistedState) {
		ps.Step3 = data
	})
}

func (r *WizardRepo) SetUsernameCheckStatus(ctx context.Context, sessionID string, checked, valid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.checks[sessionID]
	f.usernameChecked = checked
	f.usernameValid = valid
	r.checks[sessionID] = f
	return nil
}

func (r *WizardRepo) SetEmailCheckStatus(ctx context.Context, sessionID string, checked, valid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.checks[sessionID]
	f.emailChecked = checked
	f.emailValid = valid
	r.checks[sessionID] = f
	return nil
}

func (r *WizardRepo) SetCurrentStep(ctx context.Context, sessionID string, step int) error {
	return r.mutate(ctx, sessionID, func(ps *persistedState) {
		ps.CurrentStep = step
	})
}

func (r *WizardRepo) ResetAllData(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.checks, sessionID)
	r.mu.Unlock()

	if err := r.rdb.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// mutate is read-modify-write on the session blob. All mutations happen on
// a single session's request path, so no cross-process locking is needed.
func (r *WizardRepo) mutate(ctx context.Context, sessionID string, fn func(*persistedState)) error {
	ps := persistedState{CurrentStep: 1}

	raw, err := r.rdb.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return apperror.Internal(err)
	}
	if err == nil {
		_ = json.Unmarshal(raw, &ps)
	}

	fn(&ps)

	out, err := json.Marshal(&ps)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := r.rdb.Set(ctx, r.key(sessionID), out, r.ttl).Err(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *WizardRepo) mergeFlags(sessionID string, state *domain.WizardState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.checks[sessionID]
	state.UsernameChecked = f.usernameChecked
	state.UsernameValid = f.usernameValid
	state.EmailChecked = f.emailChecked
	state.EmailValid = f.emailValid
}
