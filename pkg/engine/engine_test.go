package engine_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/pkg/engine"
	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/nodes/conditional"
	"github.com/nodeflow/nodeflow/pkg/nodes/end"
	"github.com/nodeflow/nodeflow/pkg/nodes/generic"
	"github.com/nodeflow/nodeflow/pkg/nodes/start"
	"github.com/nodeflow/nodeflow/pkg/nodes/transform"
	"github.com/nodeflow/nodeflow/pkg/persistence/file"
	"github.com/nodeflow/nodeflow/pkg/protocol"
	"github.com/nodeflow/nodeflow/pkg/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterHandler(start.NewHandler())
	reg.RegisterHandler(end.NewHandler())
	reg.RegisterHandler(conditional.NewHandler())
	reg.RegisterHandler(transform.NewHandler())
	reg.RegisterFallback(generic.NewHandler())

	return reg
}

func setupEngine(t *testing.T) (*engine.Engine, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	eng := engine.NewEngine(store, testRegistry(t), nil, nil, testLogger(), "test-worker")

	return eng, store
}

func saveWorkflow(t *testing.T, store *file.Persistence, definition *models.Definition) *models.Workflow {
	t.Helper()

	workflow := &models.Workflow{
		ID:         uuid.NewString(),
		Name:       "Test Workflow",
		Status:     models.WorkflowStatusActive,
		Definition: definition,
	}
	require.NoError(t, store.WorkflowRepository().Save(context.Background(), workflow))

	return workflow
}

func createExecution(t *testing.T, store *file.Persistence, workflowID string, input map[string]any) *models.Execution {
	t.Helper()

	execution := &models.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		InputData:  input,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.ExecutionRepository().Create(context.Background(), execution))

	return execution
}

func TestRun_StartToEnd(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "e"},
		},
	})
	execution := createExecution(t, store, workflow.ID, map[string]any{"k": "v"})

	err := eng.Run(ctx, execution.ID)
	require.NoError(t, err)

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	require.NotNil(t, final.StartedAt)
	require.NotNil(t, final.CompletedAt)
	assert.False(t, final.CompletedAt.Before(*final.StartedAt))

	expected := map[string]any{
		"s": map[string]any{
			"status": "started",
			"data":   map[string]any{"k": "v"},
		},
		"e": map[string]any{
			"status": "completed",
			"final_data": map[string]any{
				"status": "started",
				"data":   map[string]any{"k": "v"},
			},
		},
	}
	assert.Equal(t, expected, final.OutputData)
}

func TestRun_DataFlowsThroughChain(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{
				ID: "t", Type: models.NodeTypeDataTransform, Name: "Extract",
				Parameters: map[string]any{
					"transformation": "json_extract",
					"path":           "data.user.name",
				},
			},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "t"},
			{Source: "t", Target: "e"},
		},
	})
	execution := createExecution(t, store, workflow.ID, map[string]any{
		"user": map[string]any{"name": "ada"},
	})

	require.NoError(t, eng.Run(ctx, execution.ID))

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, final.Status)

	transformOutput, ok := final.OutputData["t"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", transformOutput["result"])
}

func TestRun_UnknownNodeTypeUsesFallback(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "x", Type: "exotic_type", Name: "Exotic"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "x"},
		},
	})
	execution := createExecution(t, store, workflow.ID, nil)

	require.NoError(t, eng.Run(ctx, execution.ID))

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	// Generic passthrough echoes the previous node's output
	assert.Equal(t, final.OutputData["s"], final.OutputData["x"])
}

type failingHandler struct{}

func (failingHandler) Type() models.NodeType {
	return "always_fails"
}

func (failingHandler) Execute(_ context.Context, _ *models.Node, _ *models.RunContext) (map[string]any, error) {
	return nil, errors.New("boom")
}

var _ protocol.NodeHandler = failingHandler{}

func TestRun_NodeFailureFailsExecution(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	reg := testRegistry(t)
	reg.RegisterHandler(failingHandler{})
	eng := engine.NewEngine(store, reg, nil, nil, testLogger(), "test-worker")
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "bad", Type: "always_fails", Name: "Bad"},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "bad"},
			{Source: "bad", Target: "e"},
		},
	})
	execution := createExecution(t, store, workflow.ID, nil)

	err := eng.Run(ctx, execution.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "boom")
	require.NotNil(t, final.CompletedAt)

	// The end node never ran
	assert.NotContains(t, final.OutputData, "e")

	logs, err := store.ExecutionLogRepository().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)

	var foundErrorLog bool

	for _, entry := range logs {
		if entry.Level == models.LogLevelError {
			foundErrorLog = true

			assert.Equal(t, "bad", entry.Metadata["node_id"])

			detail, ok := entry.Metadata["error"].(string)
			require.True(t, ok)
			assert.Contains(t, detail, "boom")
		}
	}

	assert.True(t, foundErrorLog, "expected an error log entry referencing the failed node")
}

func TestRun_CycleFallsBackToDeclarationOrder(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "a", Type: models.NodeTypeStart, Name: "A"},
			{ID: "b", Type: "noop", Name: "B"},
			{ID: "c", Type: "noop", Name: "C"},
		},
		Connections: []*models.Connection{
			{Source: "b", Target: "c"},
			{Source: "c", Target: "b"},
		},
	})
	execution := createExecution(t, store, workflow.ID, nil)

	require.NoError(t, eng.Run(ctx, execution.ID))

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, true, final.Metadata["scheduler_fallback"])
	assert.Len(t, final.OutputData, 3)
}

func TestRun_NotPending(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
		},
	})

	execution := &models.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.ExecutionRepository().Create(ctx, execution))

	err := eng.Run(ctx, execution.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrNotRunnable)
}

func TestRun_MissingExecution(t *testing.T) {
	eng, _ := setupEngine(t)

	err := eng.Run(context.Background(), uuid.NewString())
	require.Error(t, err)
}

type slowHandler struct {
	started chan struct{}
	release chan struct{}
}

func (h *slowHandler) Type() models.NodeType {
	return "slow"
}

func (h *slowHandler) Execute(_ context.Context, _ *models.Node, _ *models.RunContext) (map[string]any, error) {
	close(h.started)
	<-h.release

	return map[string]any{"done": true}, nil
}

func TestRun_CancelledStatusStopsBeforeNextNode(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	reg := testRegistry(t)
	slow := &slowHandler{started: make(chan struct{}), release: make(chan struct{})}
	reg.RegisterHandler(slow)
	eng := engine.NewEngine(store, reg, nil, nil, testLogger(), "test-worker")
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "w", Type: "slow", Name: "Wait"},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "w"},
			{Source: "w", Target: "e"},
		},
	})
	execution := createExecution(t, store, workflow.ID, nil)

	done := make(chan error, 1)

	go func() {
		done <- eng.Run(ctx, execution.ID)
	}()

	<-slow.started

	// Flip the stored record to cancelled while the slow node is running
	stored, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)

	stored.Status = models.ExecutionStatusCancelled
	require.NoError(t, store.ExecutionRepository().Update(ctx, stored))

	close(slow.release)

	require.NoError(t, <-done)

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCancelled, final.Status)
	require.NotNil(t, final.CompletedAt)

	// The end node never ran
	assert.Empty(t, final.OutputData)
}

func TestRun_ContextCancellation(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	reg := testRegistry(t)
	slow := &slowHandler{started: make(chan struct{}), release: make(chan struct{})}
	reg.RegisterHandler(slow)
	eng := engine.NewEngine(store, reg, nil, nil, testLogger(), "test-worker")

	ctx, cancel := context.WithCancel(context.Background())

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "w", Type: "slow", Name: "Wait"},
			{ID: "e", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "w"},
			{Source: "w", Target: "e"},
		},
	})
	execution := createExecution(t, store, workflow.ID, nil)

	done := make(chan error, 1)

	go func() {
		done <- eng.Run(ctx, execution.ID)
	}()

	<-slow.started
	cancel()
	close(slow.release)

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	final, err := store.ExecutionRepository().GetByID(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCancelled, final.Status)
}

func TestRun_ConditionGatesResult(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	workflow := saveWorkflow(t, store, &models.Definition{
		Nodes: []*models.Node{
			{ID: "s", Type: models.NodeTypeStart, Name: "Start"},
			{
				ID: "c", Type: models.NodeTypeCondition, Name: "Gate",
				Parameters: map[string]any{},
			},
		},
		Connections: []*models.Connection{
			{Source: "s", Target: "c"},
		},
	})

	// Rewrite the condition now that the workflow id is known
	workflow.Definition.Nodes[1].Parameters["condition"] = fmt.Sprintf("{{workflow_id}} == %s", workflow.ID)
	require.NoError(t, store.WorkflowRepository().Save(ctx, workflow))

	execution := createExecution(t, store, workflow.ID, nil)

	require.NoError(t, eng.Run(ctx, execution.ID))

	final, err := store.ExecutionRepository().GetByID(ctx, execution.ID)
	require.NoError(t, err)

	conditionOutput, ok := final.OutputData["c"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, conditionOutput["condition_result"])
}
