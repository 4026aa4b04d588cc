// Package eventbus carries workflow change events over watermill publishers and subscribers.
package eventbus

import (
	"context"

	"github.com/dukex/stepflow/pkg/events"
)

// Event is a workflow change: one of the types in package events, published
// after the mutation has been stored.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends a change event. The id of the workflow it touched
// travels in the message metadata under events.EventMetadataKey.
type EventPublisher interface {
	Publish(ctx context.Context, workflowID string, event Event) error
}

// EventSubscriber dispatches incoming change events by type. Handlers are
// registered before Subscribe; events without a handler are acked unread.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler gets a pointer to the decoded event, e.g. *events.StepDeleted.
// Returning an error nacks the message for redelivery.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	// NewMessageID returns a fresh ULID for an outgoing message.
	NewMessageID() string
}
