package redisstore_test

import (
	"context"
	"testing"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/repository/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*redisstore.WizardRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisstore.NewWizardRepository(rdb, time.Hour), mr
}

func sampleStep1() *domain.Step1Data {
	return &domain.Step1Data{
		Username:        "validUser1",
		Email:           "a@b.com",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
		Phone:           "01012345678",
	}
}

func TestWizardStateRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	const sid = "sess-1"

	require.NoError(t, repo.SetStep1Data(ctx, sid, sampleStep1()))
	require.NoError(t, repo.SetCurrentStep(ctx, sid, 2))

	// A fresh repo over the same Redis simulates a reload: the in-memory
	// flags are gone but the persisted subset rehydrates.
	state, err := repo.Get(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, state.Step1)
	assert.Equal(t, "validUser1", state.Step1.Username)
	assert.Equal(t, 2, state.CurrentStep)
}

func TestCheckFlagsNotDurable(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()
	const sid = "sess-2"

	require.NoError(t, repo.SetStep1Data(ctx, sid, sampleStep1()))
	require.NoError(t, repo.SetUsernameCheckStatus(ctx, sid, true, true))
	require.NoError(t, repo.SetEmailCheckStatus(ctx, sid, true, true))

	state, err := repo.Get(ctx, sid)
	require.NoError(t, err)
	assert.True(t, state.UsernameChecked)
	assert.True(t, state.EmailValid)

	// Simulated process restart: new repo instance, same Redis contents.
	restarted := redisstore.NewWizardRepository(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	state, err = restarted.Get(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, state.Step1, "step data must survive the restart")
	assert.False(t, state.UsernameChecked, "check flags must not survive")
	assert.False(t, state.EmailChecked)
}

func TestResetAllDataReturnsInitialState(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	const sid = "sess-3"

	require.NoError(t, repo.SetStep1Data(ctx, sid, sampleStep1()))
	require.NoError(t, repo.SetStep2Data(ctx, sid, &domain.Step2Data{
		BirthDate: "2000-01-01",
		Gender:    domain.GenderMale,
	}))
	require.NoError(t, repo.SetCurrentStep(ctx, sid, 3))
	require.NoError(t, repo.SetUsernameCheckStatus(ctx, sid, true, true))

	require.NoError(t, repo.ResetAllData(ctx, sid))

	state, err := repo.Get(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, state.Step1)
	assert.Nil(t, state.Step2)
	assert.Nil(t, state.Step3)
	assert.False(t, state.UsernameChecked)
	assert.False(t, state.UsernameValid)
	assert.False(t, state.EmailChecked)
	assert.False(t, state.EmailValid)
	assert.Equal(t, 1, state.CurrentStep)
}

func TestSetStepDataIsIdempotent(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	const sid = "sess-4"

	data := sampleStep1()
	require.NoError(t, repo.SetStep1Data(ctx, sid, data))
	require.NoError(t, repo.SetStep1Data(ctx, sid, data))

	state, err := repo.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, data, state.Step1)
}

func TestCurrentStepCanMoveBackward(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	const sid = "sess-5"

	require.NoError(t, repo.SetCurrentStep(ctx, sid, 3))
	require.NoError(t, repo.SetCurrentStep(ctx, sid, 2))

	state, err := repo.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentStep)
}
