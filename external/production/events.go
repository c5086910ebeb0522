package production

import (
	"sync"
	"time"
)

// EventType represents the type of production event.
type EventType int

const (
	// EventJobStarted is emitted when a job begins (and when a repeating
	// job restarts; those carry "isRestart" in Data).
	EventJobStarted EventType = iota
	// EventJobCompleted is emitted when a job finishes successfully.
	// Data carries "outputs" with the actual rolled yields.
	EventJobCompleted
	// EventJobFailed is emitted when a job fails.
	EventJobFailed
	// EventJobCancelled is emitted when a job is cancelled.
	EventJobCancelled
)

// String returns a human-readable representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventJobStarted:
		return "JobStarted"
	case EventJobCompleted:
		return "JobCompleted"
	case EventJobFailed:
		return "JobFailed"
	case EventJobCancelled:
		return "JobCancelled"
	default:
		return "Unknown"
	}
}

// Event represents a production event.
type Event struct {
	Type      EventType      `json:"type"`
	Job       *Job           `json:"job"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventBus manages event subscriptions and delivery.
type EventBus interface {
	// Subscribe registers a handler for events for a specific owner.
	Subscribe(owner OwnerID, handler func(Event))

	// Unsubscribe removes the handler for an owner.
	Unsubscribe(owner OwnerID)

	// Publish sends an event to subscribed handlers.
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus that routes each event
// to the handler registered for the job's owner.
type SimpleEventBus struct {
	mu       sync.RWMutex
	handlers map[OwnerID]func(Event)
}

// NewSimpleEventBus creates a new event bus.
func NewSimpleEventBus() *SimpleEventBus {
	return &SimpleEventBus{
		handlers: make(map[OwnerID]func(Event)),
	}
}

// Subscribe registers a handler for events for a specific owner.
// Registering again replaces the previous handler.
func (bus *SimpleEventBus) Subscribe(owner OwnerID, handler func(Event)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[owner] = handler
}

// Unsubscribe removes the handler for an owner.
func (bus *SimpleEventBus) Unsubscribe(owner OwnerID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.handlers, owner)
}

// Publish sends an event to the owner's handler, if any. Handlers are
// called asynchronously in separate goroutines to prevent blocking the
// publisher; events for owners without a handler are dropped.
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if event.Job != nil && event.Job.Owner != "" {
		if handler, exists := bus.handlers[event.Job.Owner]; exists {
			go handler(event)
		}
	}
}

// NullEventBus is an event bus that does nothing (for testing or when events not needed).
type NullEventBus struct{}

// NewNullEventBus creates a new null event bus.
func NewNullEventBus() *NullEventBus {
	return &NullEventBus{}
}

// Subscribe does nothing.
func (bus *NullEventBus) Subscribe(owner OwnerID, handler func(Event)) {}

// Unsubscribe does nothing.
func (bus *NullEventBus) Unsubscribe(owner OwnerID) {}

// Publish does nothing.
func (bus *NullEventBus) Publish(event Event) {}
