// Package persistence provides the data storage abstraction for workflows,
// executions and execution logs.
package persistence

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// Persistence is the store contract consumed by the engine and services.
// Each run accesses the store through its own isolated session; the engine
// holds exclusive write access to an execution record between the running
// transition and the terminal transition.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	ExecutionLogRepository() ExecutionLogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	// GetByID returns ErrWorkflowNotFound when no workflow has the id.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	List(ctx context.Context) ([]*models.Workflow, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution run records.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) error
	// GetByID returns ErrExecutionNotFound when no execution has the id.
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	Update(ctx context.Context, execution *models.Execution) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}

// ExecutionLogRepository stores the append-only log stream of runs. Append
// order must be preserved by ListByExecution.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLog) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)
}
