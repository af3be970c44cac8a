package debounce_test

import (
	"testing"
	"time"

	"go-signup-backend/pkg/debounce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerOnlyFinalValueFires(t *testing.T) {
	d := debounce.New[string](50 * time.Millisecond)
	defer d.Stop()

	// Rapid sequence well inside the delay window
	for _, v := range []string{"u", "us", "use", "user"} {
		d.Set(v)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-d.C():
		assert.Equal(t, "user", got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("debounced value never delivered")
	}

	// Exactly once: nothing else should arrive
	select {
	case got := <-d.C():
		t.Fatalf("unexpected second delivery: %q", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerSeparateSettlements(t *testing.T) {
	d := debounce.New[int](20 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	require.Equal(t, 1, <-d.C())

	d.Set(2)
	require.Equal(t, 2, <-d.C())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := debounce.New[int](30 * time.Millisecond)

	d.Set(42)
	d.Stop()

	select {
	case v := <-d.C():
		t.Fatalf("delivery after Stop: %d", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerLaggingConsumerKeepsLatest(t *testing.T) {
	d := debounce.New[int](10 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	time.Sleep(30 * time.Millisecond) // 1 settles, consumer not reading
	d.Set(2)
	time.Sleep(30 * time.Millisecond) // 2 settles, replaces 1 in the buffer

	assert.Equal(t, 2, <-d.C())
}
