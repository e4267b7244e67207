package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const defaultBuffer = 256

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("queue is closed")

// MemoryQueue is a single-process, channel-backed queue used for local
// development and tests.
type MemoryQueue struct {
	tasks  chan Task
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewMemoryQueue(logger *slog.Logger) *MemoryQueue {
	return &MemoryQueue{
		tasks:  make(chan Task, defaultBuffer),
		logger: logger.With("module", "memory_queue"),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return ErrQueueClosed
	}
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return nil
			}

			if err := handler(ctx, task); err != nil {
				q.logger.ErrorContext(ctx, "Task handler failed",
					"execution_id", task.ExecutionID, "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.tasks)
	}

	return nil
}
