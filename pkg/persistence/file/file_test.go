package file

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/persistence"
)

func testWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:     id,
		Name:   "test workflow",
		Status: models.WorkflowStatusActive,
		Definition: &models.Definition{
			Nodes: []*models.Node{
				{ID: "s", Type: models.NodeTypeStart, Name: "start"},
				{ID: "e", Type: models.NodeTypeEnd, Name: "end"},
			},
			Connections: []*models.Connection{
				{Source: "s", Target: "e"},
			},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	workflow := testWorkflow("wf-1")
	require.NoError(t, p.WorkflowRepository().Save(ctx, workflow))

	loaded, err := p.WorkflowRepository().GetByID(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.ID, loaded.ID)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.NotNil(t, loaded.Definition)
	assert.Len(t, loaded.Definition.Nodes, 2)
	assert.Len(t, loaded.Definition.Connections, 1)
}

func TestWorkflowRepository_GetMissing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.WorkflowRepository().GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListAndDelete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	require.NoError(t, p.WorkflowRepository().Save(ctx, testWorkflow("wf-1")))
	require.NoError(t, p.WorkflowRepository().Save(ctx, testWorkflow("wf-2")))

	workflows, err := p.WorkflowRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)

	require.NoError(t, p.WorkflowRepository().Delete(ctx, "wf-1"))

	workflows, err = p.WorkflowRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 1)

	err = p.WorkflowRepository().Delete(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionRepository_Lifecycle(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	execution := &models.Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		InputData:  map[string]any{"foo": "bar"},
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	require.NoError(t, p.ExecutionRepository().Create(ctx, execution))

	err := p.ExecutionRepository().Create(ctx, execution)
	require.Error(t, err, "duplicate create must fail")

	loaded, err := p.ExecutionRepository().GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, loaded.Status)

	now := time.Now().UTC()
	loaded.Status = models.ExecutionStatusRunning
	loaded.StartedAt = &now
	require.NoError(t, p.ExecutionRepository().Update(ctx, loaded))

	reloaded, err := p.ExecutionRepository().GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, reloaded.Status)
	require.NotNil(t, reloaded.StartedAt)
}

func TestExecutionRepository_GetMissing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.ExecutionRepository().GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_ListByWorkflow(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	base := time.Now().UTC()

	for i := range 3 {
		execution := &models.Execution{
			ID:         fmt.Sprintf("exec-%d", i),
			WorkflowID: "wf-1",
			Status:     models.ExecutionStatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, p.ExecutionRepository().Create(ctx, execution))
	}

	other := &models.Execution{ID: "exec-other", WorkflowID: "wf-2", Status: models.ExecutionStatusPending, CreatedAt: base}
	require.NoError(t, p.ExecutionRepository().Create(ctx, other))

	executions, err := p.ExecutionRepository().ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 3)
	assert.Equal(t, "exec-0", executions[0].ID)
	assert.Equal(t, "exec-2", executions[2].ID)
}

func TestExecutionLogRepository_AppendPreservesOrder(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	for i := range 5 {
		entry := &models.ExecutionLog{
			ID:          fmt.Sprintf("log-%d", i),
			ExecutionID: "exec-1",
			Level:       models.LogLevelInfo,
			Message:     fmt.Sprintf("message %d", i),
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, p.ExecutionLogRepository().Append(ctx, entry))
	}

	logs, err := p.ExecutionLogRepository().ListByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 5)

	for i, entry := range logs {
		assert.Equal(t, fmt.Sprintf("message %d", i), entry.Message)
	}
}

func TestExecutionLogRepository_EmptyStream(t *testing.T) {
	p := NewPersistence(t.TempDir())

	logs, err := p.ExecutionLogRepository().ListByExecution(context.Background(), "never-ran")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestHealthCheck(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistence(dir)

	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence(dir + "/does-not-exist")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
