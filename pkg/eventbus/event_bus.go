// Package eventbus provides the push notification channel carrying execution
// lifecycle events to subscribers.
package eventbus

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

// EventBus is a shared broadcast sink written by many concurrent runs. It
// serializes its own delivery and imposes no lock on engine state; publish
// failures must never affect run state.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
