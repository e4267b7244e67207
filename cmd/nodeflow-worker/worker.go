package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/trace"

	"github.com/nodeflow/nodeflow/pkg/engine"
	"github.com/nodeflow/nodeflow/pkg/eventbus"
	"github.com/nodeflow/nodeflow/pkg/persistence"
	"github.com/nodeflow/nodeflow/pkg/queue"
	"github.com/nodeflow/nodeflow/pkg/registry"
)

const defaultConcurrency = 4

// WorkerManager consumes the launch queue and executes runs with a bounded
// number of concurrent engines.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	queue       queue.Queue
	eventBus    eventbus.EventBus
	registry    *registry.Registry
	tracer      trace.Tracer
	concurrency int
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	launchQueue queue.Queue,
	eventBus eventbus.EventBus,
	registry *registry.Registry,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "worker_manager"),
		persistence: persistence,
		queue:       launchQueue,
		eventBus:    eventBus,
		registry:    registry,
		concurrency: defaultConcurrency,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "concurrency", w.concurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		w.logger.InfoContext(ctx, "Shutting down worker...")
		cancel()
	}()

	eng := engine.NewEngine(w.persistence, w.registry, w.eventBus, w.tracer, w.logger, w.id)

	// The semaphore bounds how many runs execute at once; the consumer
	// blocks when all slots are busy.
	slots := make(chan struct{}, w.concurrency)

	err := w.queue.Consume(ctx, func(ctx context.Context, task queue.Task) error {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		go func() {
			defer func() { <-slots }()

			if err := eng.Run(ctx, task.ExecutionID); err != nil {
				w.logger.ErrorContext(ctx, "Run finished with error",
					"execution_id", task.ExecutionID, "error", err)
			}
		}()

		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	// Drain in-flight runs before returning
	for range w.concurrency {
		slots <- struct{}{}
	}

	w.logger.Info("Worker stopped")

	return nil
}
