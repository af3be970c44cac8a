package usecase

import (
	"sync"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/identity"
)

// LinkWatcher observes identity-session events for one wizard session and
// maintains the latest known OAuth link state. The initial state is seeded
// from the current session (an identity can be attached before the watcher
// exists), and every later transition comes from hub events.
type LinkWatcher struct {
	provider  string
	sessionID string

	mu    sync.RWMutex
	state domain.LinkState

	cancel func()
	done   chan struct{}
	once   sync.Once
}

func NewLinkWatcher(provider, sessionID string, current *identity.AuthUser, hub *identity.Hub) *LinkWatcher {
	w := &LinkWatcher{
		provider:  provider,
		sessionID: sessionID,
		done:      make(chan struct{}),
	}

	if current != nil {
		if id, ok := current.IdentityFor(provider); ok {
			email := id.Email()
			if email == "" {
				email = current.Email
			}
			w.state = domain.LinkState{
				Linked:   true,
				Provider: provider,
				Email:    email,
				Name:     id.Name(),
			}
		}
	}

	ch, cancel := hub.Subscribe()
	w.cancel = cancel
	go w.run(ch)
	return w
}

func (w *LinkWatcher) run(ch <-chan identity.SessionEvent) {
	defer close(w.done)
	for ev := range ch {
		if ev.SessionID != w.sessionID {
			continue
		}
		switch ev.Type {
		case identity.EventSignedIn:
			if ev.Provider != w.provider {
				continue
			}
			w.mu.Lock()
			w.state = domain.LinkState{
				Linked:   true,
				Provider: ev.Provider,
				Email:    ev.Email,
				Name:     ev.Name,
			}
			w.mu.Unlock()
		case identity.EventSignedOut:
			w.mu.Lock()
			w.state = domain.LinkState{}
			w.mu.Unlock()
		}
	}
}

// Snapshot returns the current link state.
func (w *LinkWatcher) Snapshot() domain.LinkState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Close unsubscribes from the hub. Deterministic: once Close returns, the
// watcher processes no further events.
func (w *LinkWatcher) Close() {
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// LinkRegistry tracks one LinkWatcher per active wizard session.
type LinkRegistry struct {
	provider string
	hub      *identity.Hub

	mu       sync.Mutex
	watchers map[string]*LinkWatcher
}

func NewLinkRegistry(provider string, hub *identity.Hub) *LinkRegistry {
	return &LinkRegistry{
		provider: provider,
		hub:      hub,
		watchers: make(map[string]*LinkWatcher),
	}
}

// Watch returns the session's watcher, creating it seeded from current when
// none exists yet.
func (r *LinkRegistry) Watch(sessionID string, current *identity.AuthUser) *LinkWatcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.watchers[sessionID]; ok {
		return w
	}
	w := NewLinkWatcher(r.provider, sessionID, current, r.hub)
	r.watchers[sessionID] = w
	return w
}

// Snapshot returns the session's link state, or a zero state when the
// session has no watcher.
func (r *LinkRegistry) Snapshot(sessionID string) domain.LinkState {
	r.mu.Lock()
	w, ok := r.watchers[sessionID]
	r.mu.Unlock()

	if !ok {
		return domain.LinkState{}
	}
	return w.Snapshot()
}

// CloseSession tears down the session's watcher, if any.
func (r *LinkRegistry) CloseSession(sessionID string) {
	r.mu.Lock()
	w, ok := r.watchers[sessionID]
	delete(r.watchers, sessionID)
	r.mu.Unlock()

	if ok {
		w.Close()
	}
}
