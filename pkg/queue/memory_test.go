package queue_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/pkg/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMemoryQueue_EnqueueAndConsume(t *testing.T) {
	q := queue.NewMemoryQueue(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan queue.Task, 3)

	go func() {
		_ = q.Consume(ctx, func(_ context.Context, task queue.Task) error {
			received <- task

			return nil
		})
	}()

	for _, id := range []string{"e1", "e2", "e3"} {
		err := q.Enqueue(ctx, queue.Task{ExecutionID: id, WorkflowID: "w1"})
		require.NoError(t, err)
	}

	for _, want := range []string{"e1", "e2", "e3"} {
		select {
		case task := <-received:
			assert.Equal(t, want, task.ExecutionID)
			assert.Equal(t, "w1", task.WorkflowID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for task %s", want)
		}
	}
}

func TestMemoryQueue_EnqueueAfterClose(t *testing.T) {
	q := queue.NewMemoryQueue(testLogger())

	require.NoError(t, q.Close())

	err := q.Enqueue(context.Background(), queue.Task{ExecutionID: "e1"})
	assert.ErrorIs(t, err, queue.ErrQueueClosed)
}

func TestMemoryQueue_ConsumeStopsOnContextCancel(t *testing.T) {
	q := queue.NewMemoryQueue(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Consume(ctx, func(_ context.Context, _ queue.Task) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
