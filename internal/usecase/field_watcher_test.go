package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldWatcherChecksOnlySettledValue(t *testing.T) {
	var calls atomic.Int32
	var lastValue atomic.Value

	w := usecase.NewFieldWatcher(30*time.Millisecond, func(ctx context.Context, value string) domain.AvailabilityResult {
		calls.Add(1)
		lastValue.Store(value)
		return domain.AvailabilityResult{Valid: true, Message: "ok"}
	})
	defer w.Close()

	// A burst of keystrokes; only the final value may trigger a check.
	for _, v := range []string{"a", "ab", "abc", "abcd"} {
		w.Set(v)
	}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "abcd", lastValue.Load())
	res := w.Result()
	assert.True(t, res.Valid)
	assert.False(t, res.Checking)
}

func TestFieldWatcherMarksCheckingWhileTyping(t *testing.T) {
	w := usecase.NewFieldWatcher(time.Hour, func(ctx context.Context, value string) domain.AvailabilityResult {
		return domain.AvailabilityResult{Valid: true}
	})
	defer w.Close()

	w.Set("partial")
	assert.True(t, w.Result().Checking)
}

func TestFieldWatcherEmptyInputResets(t *testing.T) {
	w := usecase.NewFieldWatcher(10*time.Millisecond, func(ctx context.Context, value string) domain.AvailabilityResult {
		return domain.AvailabilityResult{Valid: true, Message: "ok"}
	})
	defer w.Close()

	w.Set("name")
	require.Eventually(t, func() bool {
		return w.Result().Valid
	}, time.Second, 5*time.Millisecond)

	w.Set("")
	assert.Equal(t, domain.AvailabilityResult{}, w.Result())
}

func TestFieldWatcherCloseStopsChecks(t *testing.T) {
	var calls atomic.Int32
	w := usecase.NewFieldWatcher(20*time.Millisecond, func(ctx context.Context, value string) domain.AvailabilityResult {
		calls.Add(1)
		return domain.AvailabilityResult{}
	})

	w.Set("pending")
	w.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load(), "no check may fire after Close")
}
