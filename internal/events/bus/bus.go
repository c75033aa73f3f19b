// Package bus carries PasteKit lifecycle events (queue changes, upload
// progress, sent messages) to in-process and out-of-process observers. Two
// implementations exist: a NATS-backed bus for the demo deployment and an
// in-memory bus for embedded and test use.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one message on the bus. Data is a free-form payload; the
// reserved "_reply" key carries the reply subject on request events.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent creates an event with a fresh UUID and the current timestamp.
func NewEvent(eventType, source string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventHandler handles one delivered event.
type EventHandler func(ctx context.Context, event *Event) error

// Subscription is an active subscription handle.
type Subscription interface {
	Unsubscribe() error
	IsValid() bool
}

// EventBus is the publish/subscribe surface shared by both implementations.
// Subjects follow NATS conventions, including * and > wildcards.
type EventBus interface {
	// Publish sends an event to a subject.
	Publish(ctx context.Context, subject string, event *Event) error

	// Subscribe delivers every matching event to the handler.
	Subscribe(subject string, handler EventHandler) (Subscription, error)

	// QueueSubscribe delivers each matching event to one member of the
	// named queue group.
	QueueSubscribe(subject, queue string, handler EventHandler) (Subscription, error)

	// Request publishes an event and waits for a single reply.
	Request(ctx context.Context, subject string, event *Event, timeout time.Duration) (*Event, error)

	// Close releases the underlying connection or subscriptions.
	Close()

	// IsConnected reports whether the bus can currently deliver.
	IsConnected() bool
}
