package events

import (
	"sync"
	"time"
)

// Event kinds published by the assignment engine.
const (
	KindAssigned   = "assigned"   // table bound to a previously unassigned booking
	KindRelocated  = "relocated"  // existing booking moved to another table
	KindUnresolved = "unresolved" // booking left unassigned after a full cycle
)

// Event describes one assignment decision.
type Event struct {
	Kind           string
	RunID          string
	BookingID      int64
	RestaurantID   int64
	TableID        int64
	AssignmentType string
	At             time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for assignment events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event kind. An empty kind
// subscribes to every event.
func (b *Bus) Subscribe(kind string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], handler)
}

// Publish notifies subscribers of the event's kind plus catch-all
// subscribers. Handlers run synchronously; caller decides concurrency model.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Kind]...)
	handlers = append(handlers, b.subscribers[""]...)
	b.mu.RUnlock()

	if event.At.IsZero() {
		event.At = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}
