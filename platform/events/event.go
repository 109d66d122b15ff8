// Package events carries domain events between modules inside one process.
// Publishers fire and forget; subscribers are registered once at composition
// time. This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Bus connects publishers to subscribers. Modules publish the events they
// own and subscribe to the events of other modules; neither side imports
// the other.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Delivery is asynchronous and a handler failure never reaches the
	// publisher.
	Publish(ctx context.Context, event Event)

	// Subscribe registers a handler under an event name, as returned by
	// Event.EventName().
	Subscribe(eventName string, handler Handler)
}

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type on the bus.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// Handler receives events for the names it was subscribed under.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// BaseEvent is embedded by concrete events to satisfy the timestamp half of
// the Event interface.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}
