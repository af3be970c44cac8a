package usecase_test

import (
	"testing"
	"time"

	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkWatcherSeedsFromCurrentSession(t *testing.T) {
	hub := identity.NewHub()
	current := &identity.AuthUser{
		ID:    "auth-1",
		Email: "fallback@example.com",
		Identities: []identity.Identity{{
			Provider:     "github",
			IdentityData: map[string]any{"email": "gh@example.com", "name": "GH User"},
		}},
	}

	w := usecase.NewLinkWatcher("github", "sess-1", current, hub)
	defer w.Close()

	st := w.Snapshot()
	assert.True(t, st.Linked)
	assert.Equal(t, "github", st.Provider)
	assert.Equal(t, "gh@example.com", st.Email)
	assert.Equal(t, "GH User", st.Name)
}

func TestLinkWatcherFollowsSessionEvents(t *testing.T) {
	hub := identity.NewHub()
	w := usecase.NewLinkWatcher("github", "sess-1", nil, hub)
	defer w.Close()

	assert.False(t, w.Snapshot().Linked)

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedIn,
		SessionID: "sess-1",
		Provider:  "github",
		Email:     "gh@example.com",
	})
	require.Eventually(t, func() bool {
		return w.Snapshot().Linked
	}, time.Second, 5*time.Millisecond)

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedOut,
		SessionID: "sess-1",
	})
	require.Eventually(t, func() bool {
		return !w.Snapshot().Linked
	}, time.Second, 5*time.Millisecond)
}

func TestLinkWatcherIgnoresOtherSessions(t *testing.T) {
	hub := identity.NewHub()
	w := usecase.NewLinkWatcher("github", "sess-1", nil, hub)
	defer w.Close()

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedIn,
		SessionID: "sess-other",
		Provider:  "github",
		Email:     "other@example.com",
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Snapshot().Linked)
}

func TestLinkWatcherIgnoresOtherProviders(t *testing.T) {
	hub := identity.NewHub()
	w := usecase.NewLinkWatcher("github", "sess-1", nil, hub)
	defer w.Close()

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedIn,
		SessionID: "sess-1",
		Provider:  "gitlab",
		Email:     "gl@example.com",
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Snapshot().Linked)
}

func TestLinkWatcherCloseIsDeterministic(t *testing.T) {
	hub := identity.NewHub()
	w := usecase.NewLinkWatcher("github", "sess-1", nil, hub)

	w.Close()
	w.Close() // idempotent

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedIn,
		SessionID: "sess-1",
		Provider:  "github",
	})
	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Snapshot().Linked, "events after Close must not be processed")
}

func TestLinkRegistryLifecycle(t *testing.T) {
	hub := identity.NewHub()
	reg := usecase.NewLinkRegistry("github", hub)

	assert.False(t, reg.Snapshot("sess-1").Linked, "unknown session yields zero state")

	w := reg.Watch("sess-1", nil)
	assert.Same(t, w, reg.Watch("sess-1", nil), "watcher is reused per session")

	hub.Publish(identity.SessionEvent{
		Type:      identity.EventSignedIn,
		SessionID: "sess-1",
		Provider:  "github",
		Email:     "gh@example.com",
	})
	require.Eventually(t, func() bool {
		return reg.Snapshot("sess-1").Linked
	}, time.Second, 5*time.Millisecond)

	reg.CloseSession("sess-1")
	assert.False(t, reg.Snapshot("sess-1").Linked)
}
