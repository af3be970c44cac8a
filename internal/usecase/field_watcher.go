package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/debounce"
)

// FieldCheckFunc resolves a settled input value to an availability result.
type FieldCheckFunc func(ctx context.Context, value string) domain.AvailabilityResult

// FieldWatcher couples a debouncer with an availability check. Each keystroke
// is fed in through Set; only an input that survives the debounce delay
// triggers the check, and because settlements are processed one at a time on
// a single goroutine, responses can never overlap or arrive out of order.
type FieldWatcher struct {
	deb   *debounce.Debouncer[string]
	check FieldCheckFunc

	mu  sync.RWMutex
	res domain.AvailabilityResult

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewFieldWatcher(delay time.Duration, check FieldCheckFunc) *FieldWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &FieldWatcher{
		deb:    debounce.New[string](delay),
		check:  check,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Set feeds the current input value. Empty input resets the result to
// neutral immediately; non-empty input marks the field as checking until
// the debounced lookup settles.
func (w *FieldWatcher) Set(value string) {
	if strings.TrimSpace(value) == "" {
		w.mu.Lock()
		w.res = domain.AvailabilityResult{}
		w.mu.Unlock()
		w.deb.Set(value)
		return
	}

	w.mu.Lock()
	w.res = domain.AvailabilityResult{Checking: true}
	w.mu.Unlock()
	w.deb.Set(value)
}

// Result returns the latest known availability state.
func (w *FieldWatcher) Result() domain.AvailabilityResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res
}

// Close stops the watcher. No checks run after Close returns to the caller
// and the run loop has drained.
func (w *FieldWatcher) Close() {
	w.once.Do(func() {
		w.deb.Stop()
		w.cancel()
		<-w.done
	})
}

func (w *FieldWatcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case value := <-w.deb.C():
			if strings.TrimSpace(value) == "" {
				w.mu.Lock()
				w.res = domain.AvailabilityResult{}
				w.mu.Unlock()
				continue
			}
			res := w.check(ctx, value)
			res.Checking = false
			w.mu.Lock()
			w.res = res
			w.mu.Unlock()
		}
	}
}
