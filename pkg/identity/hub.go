package identity

import "sync"

type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// SessionEvent is a push notification about a session change. SessionID is
// the wizard session the change belongs to, so watchers for other sessions
// can ignore it.
type SessionEvent struct {
	Type      EventType
	SessionID string
	Provider  string
	Email     string
	Name      string
}

// Hub fans session events out to subscribers. Subscriptions are scoped
// resources: the returned cancel func must be called when the observer is
// torn down, after which no further events are delivered to it.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan SessionEvent
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan SessionEvent)}
}

// Subscribe registers a new observer. The channel is buffered so a slow
// observer cannot block publishers; events overflowing the buffer are
// dropped for that observer.
func (h *Hub) Subscribe() (<-chan SessionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan SessionEvent, 8)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers ev to all current subscribers without blocking.
func (h *Hub) Publish(ev SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
