// Package redisqueue provides a Redis list backed launch queue shared by
// multiple worker processes.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/nodeflow/nodeflow/pkg/queue"
)

const (
	defaultKey  = "nodeflow:executions"
	popTimeout  = 1 * time.Second
	pingTimeout = 5 * time.Second
)

// Queue pushes tasks with LPUSH and pops them with BLPOP, so concurrent
// workers share the list without coordination.
type Queue struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewQueue connects to Redis at addr. An empty key uses the default list.
func NewQueue(ctx context.Context, addr, password, key string, db int, logger *slog.Logger) (*Queue, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	if key == "" {
		key = defaultKey
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Queue{
		client: client,
		key:    key,
		stopCh: make(chan struct{}),
		logger: logger.With("module", "redis_queue", "key", key),
	}, nil
}

func (q *Queue) Enqueue(ctx context.Context, task queue.Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push task: %w", err)
	}

	return nil
}

func (q *Queue) Consume(ctx context.Context, handler queue.Handler) error {
	q.wg.Add(1)
	defer q.wg.Done()

	q.logger.InfoContext(ctx, "Starting queue consumer")

	for {
		select {
		case <-q.stopCh:
			q.logger.InfoContext(ctx, "Queue consumer stopped")

			return nil
		case <-ctx.Done():
			q.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return ctx.Err()
		default:
			if err := q.processMessage(ctx, handler); err != nil {
				q.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (q *Queue) processMessage(ctx context.Context, handler queue.Handler) error {
	result, err := q.client.BLPop(ctx, popTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop task: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var task queue.Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	if err := handler(ctx, task); err != nil {
		q.logger.ErrorContext(ctx, "Task handler failed",
			"execution_id", task.ExecutionID, "error", err)
	}

	return nil
}

func (q *Queue) Close() error {
	close(q.stopCh)
	q.wg.Wait()

	return q.client.Close()
}
