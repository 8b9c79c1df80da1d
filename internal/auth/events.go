package auth

import "sync"

// Event is an auth-state change.
type Event string

const (
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
)

// Handler reacts to an auth-state change for the given user id.
type Handler func(event Event, userID string)

// Bus provides in-process pub/sub for auth-state changes. Subscribe returns
// an unsubscribe handle so consumers can detach cleanly.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Event]map[int]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event]map[int]Handler)}
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(event Event, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[event] == nil {
		b.subs[event] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[event][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[event], id)
	}
}

// Publish notifies subscribers synchronously, in registration order not
// guaranteed. Handlers must not block.
func (b *Bus) Publish(event Event, userID string) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event]))
	for _, h := range b.subs[event] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event, userID)
	}
}
