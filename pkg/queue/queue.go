// Package queue defines the launch queue handing pending executions from the
// API and triggers to workers.
package queue

import (
	"context"
	"time"
)

// Task identifies one pending execution waiting for a worker.
type Task struct {
	ExecutionID string    `json:"execution_id"`
	WorkflowID  string    `json:"workflow_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Handler processes one dequeued task. A handler error is logged by the
// consumer; the task is not redelivered.
type Handler func(ctx context.Context, task Task) error

// Queue is the transport between execution creation and execution. Delivery
// is at-most-once; runs interrupted mid-flight stay in their last recorded
// state rather than being retried.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Consume blocks, delivering tasks to the handler until the context is
	// cancelled or Close is called.
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
