package event

import (
	"slices"
	"sync"

	"github.com/bethropolis/tomboy/internal/logger"
)

// Handler receives a dispatched event. The return value reports whether the
// event was consumed; a consumed event is not passed to later handlers.
type Handler func(e Event) bool

// Manager handles event subscriptions and dispatching.
type Manager struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Type][]subscription
}

type subscription struct {
	id      int
	handler Handler
}

// NewManager creates a new event manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]subscription),
	}
}

// Subscribe adds a handler for eventType and returns an id for Unsubscribe.
func (m *Manager) Subscribe(eventType Type, handler Handler) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.handlers[eventType] = append(m.handlers[eventType], subscription{id: m.nextID, handler: handler})
	logger.DebugTagf("event", "Handler %d subscribed to %v", m.nextID, eventType)
	return m.nextID
}

// Unsubscribe removes the handler registered under id.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, subs := range m.handlers {
		m.handlers[t] = slices.DeleteFunc(subs, func(s subscription) bool { return s.id == id })
	}
}

// Dispatch sends an event to the handlers of its type, synchronously and in
// subscription order. Safe to call on a nil Manager.
func (m *Manager) Dispatch(eventType Type, data any) {
	if m == nil {
		return
	}
	m.mu.RLock()
	subs := slices.Clone(m.handlers[eventType])
	m.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	logger.DebugTagf("event", "Dispatching %v to %d handler(s)", eventType, len(subs))

	e := Event{Type: eventType, Data: data}
	for _, s := range subs {
		if s.handler(e) {
			break
		}
	}
}
