package debounce

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly changing value. A value set
// through Set is delivered on C only after the configured delay has elapsed
// with no further Set call. Each Set cancels any pending delivery, so only
// the most recent value can fire (last-write-wins, timers never stack).
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	out     chan T
	stopped bool
}

func New[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// Set schedules v for delivery after the delay, cancelling any pending value.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.deliver(v)
	})
}

// C returns the channel on which settled values are delivered. If the
// consumer lags, an undelivered settled value is replaced by the newer one.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Stop cancels any pending delivery. No value is delivered after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) deliver(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	// Drop a stale undelivered value so the buffer always holds the latest.
	select {
	case <-d.out:
	default:
	}
	d.out <- v
}
