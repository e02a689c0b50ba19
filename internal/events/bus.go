package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler receives published events. Handlers run synchronously on the
// emitter's goroutine and must not block; slow consumers should buffer into
// their own channel and drop when full.
type Handler func(*Event)

// Bus fans events out to subscribers by type.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType]map[string]Handler
	log  zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[EventType]map[string]Handler),
		log:  log.With().Str("component", "event-bus").Logger(),
	}
}

// Subscribe registers a handler for an event type and returns a subscription
// ID for Unsubscribe.
func (b *Bus) Subscribe(eventType EventType, handler Handler) string {
	id := uuid.New().String()

	b.mu.Lock()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[string]Handler)
	}
	b.subs[eventType][id] = handler
	b.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(eventType EventType, id string) {
	b.mu.Lock()
	if handlers, ok := b.subs[eventType]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.subs, eventType)
		}
	}
	b.mu.Unlock()
}

// SubscriberCount returns the number of handlers registered for a type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}

// Emit builds an event and dispatches it to every subscriber of its type.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[eventType]))
	for _, h := range b.subs[eventType] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
