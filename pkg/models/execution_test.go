package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodeflow/nodeflow/pkg/models"
)

func TestExecutionStatusIsTerminal(t *testing.T) {
	terminal := []models.ExecutionStatus{
		models.ExecutionStatusCompleted,
		models.ExecutionStatusFailed,
		models.ExecutionStatusCancelled,
	}
	for _, status := range terminal {
		assert.True(t, status.IsTerminal(), "status %s", status)
	}

	active := []models.ExecutionStatus{
		models.ExecutionStatusPending,
		models.ExecutionStatusRunning,
	}
	for _, status := range active {
		assert.False(t, status.IsTerminal(), "status %s", status)
	}
}

func TestRunContextTemplateScope(t *testing.T) {
	runCtx := models.NewRunContext("exec-1", "wf-1", map[string]any{"user": "ada"})
	runCtx.Data = map[string]any{"status": "started"}

	scope := runCtx.TemplateScope()

	assert.Equal(t, "exec-1", scope["execution_id"])
	assert.Equal(t, "wf-1", scope["workflow_id"])
	assert.Equal(t, map[string]any{"user": "ada"}, scope["input_data"])
	assert.Equal(t, map[string]any{"status": "started"}, scope["data"])
}

func TestNewRunContextDefaultsInputData(t *testing.T) {
	runCtx := models.NewRunContext("exec-1", "wf-1", nil)

	assert.NotNil(t, runCtx.InputData)
	assert.Empty(t, runCtx.InputData)
}
