package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/persistence"
	"github.com/nodeflow/nodeflow/pkg/persistence/file"
	"github.com/nodeflow/nodeflow/pkg/queue"
	"github.com/nodeflow/nodeflow/pkg/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDefinition() *models.Definition {
	return &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "e"},
		},
	}
}

func setupExecutionService(t *testing.T) (*services.Execution, *file.Persistence, *queue.MemoryQueue) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	launchQueue := queue.NewMemoryQueue(testLogger())
	service := services.NewExecution(store, launchQueue, testLogger())

	return service, store, launchQueue
}

func saveWorkflow(t *testing.T, store *file.Persistence, status models.WorkflowStatus) *models.Workflow {
	t.Helper()

	workflow := &models.Workflow{
		ID:         uuid.NewString(),
		Name:       "Test Workflow",
		Status:     status,
		Definition: testDefinition(),
	}
	require.NoError(t, store.WorkflowRepository().Save(context.Background(), workflow))

	return workflow
}

func TestExecution_CreateEnqueuesPendingRun(t *testing.T) {
	service, store, launchQueue := setupExecutionService(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, models.WorkflowStatusActive)

	execution, err := service.Create(ctx, workflow.ID, map[string]any{"k": "v"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
	assert.Equal(t, workflow.ID, execution.WorkflowID)
	assert.Nil(t, execution.StartedAt)

	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, stored.Status)
	assert.Equal(t, "v", stored.InputData["k"])

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan queue.Task, 1)

	go func() {
		_ = launchQueue.Consume(consumeCtx, func(_ context.Context, task queue.Task) error {
			received <- task

			return nil
		})
	}()

	task := <-received
	assert.Equal(t, execution.ID, task.ExecutionID)
	assert.Equal(t, workflow.ID, task.WorkflowID)
}

func TestExecution_CreateRejectsInactiveWorkflow(t *testing.T) {
	service, store, _ := setupExecutionService(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, models.WorkflowStatusDraft)

	_, err := service.Create(ctx, workflow.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrWorkflowNotRunnable)
	assert.True(t, services.IsConflictError(err))
}

func TestExecution_CreateUnknownWorkflow(t *testing.T) {
	service, _, _ := setupExecutionService(t)

	_, err := service.Create(context.Background(), uuid.NewString(), nil)
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecution_CancelPendingTerminatesImmediately(t *testing.T) {
	service, store, _ := setupExecutionService(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, models.WorkflowStatusActive)

	execution, err := service.Create(ctx, workflow.ID, nil)
	require.NoError(t, err)

	cancelled, err := service.Cancel(ctx, execution.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)
}

func TestExecution_CancelTerminalRejected(t *testing.T) {
	service, store, _ := setupExecutionService(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, models.WorkflowStatusActive)

	execution, err := service.Create(ctx, workflow.ID, nil)
	require.NoError(t, err)

	_, err = service.Cancel(ctx, execution.ID)
	require.NoError(t, err)

	_, err = service.Cancel(ctx, execution.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExecutionNotStoppable)
}

func TestExecution_LogsRequireExistingExecution(t *testing.T) {
	service, _, _ := setupExecutionService(t)

	_, err := service.Logs(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestWorkflow_CreateValidatesDefinition(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	service := services.NewWorkflow(store, validator.New())
	ctx := context.Background()

	created, err := service.Create(ctx, &models.Workflow{
		Name:       "Valid Workflow",
		Status:     models.WorkflowStatusActive,
		Definition: testDefinition(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// Dangling connection target
	_, err = service.Create(ctx, &models.Workflow{
		Name:   "Broken Workflow",
		Status: models.WorkflowStatusActive,
		Definition: &models.Definition{
			Nodes: []*models.Node{
				{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			},
			Connections: []*models.Connection{
				{Source: "s", Target: "ghost"},
			},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
	assert.ErrorIs(t, err, models.ErrInvalidDefinition)
}

func TestWorkflow_CreateDefaultsToDraft(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	service := services.NewWorkflow(store, validator.New())

	created, err := service.Create(context.Background(), &models.Workflow{
		Name:       "Draft Workflow",
		Definition: testDefinition(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
}
