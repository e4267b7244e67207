package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/persistence"
	"github.com/nodeflow/nodeflow/pkg/queue"
)

// Execution handles execution creation, inspection and cancellation. Runs are
// created pending and handed to workers over the launch queue; the service
// never executes nodes itself.
type Execution struct {
	persistence persistence.Persistence
	queue       queue.Queue
	logger      *slog.Logger
}

// NewExecution creates a new execution service. The queue is optional; without
// one, created executions stay pending until a worker picks them up by id.
func NewExecution(persistence persistence.Persistence, launchQueue queue.Queue, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: persistence,
		queue:       launchQueue,
		logger:      logger.With("module", "execution_service"),
	}
}

// Create starts a new pending run of the given workflow. Only active
// workflows are runnable.
func (e *Execution) Create(ctx context.Context, workflowID string, inputData map[string]any) (*models.Execution, error) {
	workflow, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsExecutable() {
		return nil, fmt.Errorf("%w: workflow %s is %s", ErrWorkflowNotRunnable, workflow.ID, workflow.Status)
	}

	if inputData == nil {
		inputData = make(map[string]any)
	}

	execution := &models.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflow.ID,
		InputData:  inputData,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := e.persistence.ExecutionRepository().Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	if e.queue != nil {
		task := queue.Task{
			ExecutionID: execution.ID,
			WorkflowID:  workflow.ID,
			EnqueuedAt:  execution.CreatedAt,
		}

		if err := e.queue.Enqueue(ctx, task); err != nil {
			e.logger.ErrorContext(ctx, "Failed to enqueue execution",
				"execution_id", execution.ID, "error", err)

			return nil, fmt.Errorf("failed to enqueue execution %s: %w", execution.ID, err)
		}
	}

	e.logger.InfoContext(ctx, "Execution created",
		"execution_id", execution.ID, "workflow_id", workflow.ID)

	return execution, nil
}

// Get returns the execution with the given id.
func (e *Execution) Get(ctx context.Context, id string) (*models.Execution, error) {
	return e.persistence.ExecutionRepository().GetByID(ctx, id)
}

// ListByWorkflow returns all executions of a workflow.
func (e *Execution) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return e.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID)
}

// Logs returns the log stream of an execution in append order.
func (e *Execution) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	if _, err := e.persistence.ExecutionRepository().GetByID(ctx, executionID); err != nil {
		return nil, err
	}

	return e.persistence.ExecutionLogRepository().ListByExecution(ctx, executionID)
}

// Cancel requests cooperative cancellation of a pending or running execution.
// The engine observes the status flip between nodes; a pending execution that
// no worker has claimed yet terminates immediately.
func (e *Execution) Cancel(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := e.persistence.ExecutionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if execution.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: execution %s is %s", ErrExecutionNotStoppable, execution.ID, execution.Status)
	}

	wasPending := execution.Status == models.ExecutionStatusPending
	execution.Status = models.ExecutionStatusCancelled

	if wasPending {
		completedAt := time.Now().UTC()
		execution.CompletedAt = &completedAt
	}

	if err := e.persistence.ExecutionRepository().Update(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to cancel execution %s: %w", id, err)
	}

	e.logger.InfoContext(ctx, "Execution cancellation requested",
		"execution_id", execution.ID, "was_pending", wasPending)

	return execution, nil
}
