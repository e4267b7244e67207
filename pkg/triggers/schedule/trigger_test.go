package schedule

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrigger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tests := []struct {
		name        string
		config      map[string]any
		expectError bool
	}{
		{
			name: "valid cron expression",
			config: map[string]any{
				"id":          "test-schedule-1",
				"cron":        "*/5 * * * *",
				"workflow_id": "workflow-123",
			},
		},
		{
			name: "daily cron",
			config: map[string]any{
				"id":          "test-schedule-2",
				"cron":        "0 0 * * *",
				"workflow_id": "workflow-456",
			},
		},
		{
			name: "invalid cron expression",
			config: map[string]any{
				"id":          "test-invalid",
				"cron":        "invalid cron",
				"workflow_id": "workflow-error",
			},
			expectError: true,
		},
		{
			name: "missing id",
			config: map[string]any{
				"cron":        "*/5 * * * *",
				"workflow_id": "workflow-123",
			},
			expectError: true,
		},
		{
			name: "missing workflow id",
			config: map[string]any{
				"id":   "test-no-workflow",
				"cron": "*/5 * * * *",
			},
			expectError: true,
		},
		{
			name: "missing cron",
			config: map[string]any{
				"id":          "test-no-cron",
				"workflow_id": "workflow-123",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := NewTrigger(tt.config, logger)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, trigger)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.config["id"], trigger.ID)
			assert.Equal(t, tt.config["cron"], trigger.CronExpr)
			assert.Equal(t, tt.config["workflow_id"], trigger.WorkflowID)
			assert.True(t, trigger.Enabled)
		})
	}
}

func TestTrigger_StartAndStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	trigger, err := NewTrigger(map[string]any{
		"id":          "test-lifecycle",
		"cron":        "0 0 1 1 *",
		"workflow_id": "workflow-123",
	}, logger)
	require.NoError(t, err)

	ctx := context.Background()

	err = trigger.Start(ctx, func(_ context.Context, _ string, _ map[string]any) error {
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, trigger.Stop(ctx))
}

func TestTrigger_DisabledDoesNotStartCron(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	trigger, err := NewTrigger(map[string]any{
		"id":          "test-disabled",
		"cron":        "* * * * *",
		"workflow_id": "workflow-123",
	}, logger)
	require.NoError(t, err)

	trigger.Enabled = false

	require.NoError(t, trigger.Start(context.Background(), func(_ context.Context, _ string, _ map[string]any) error {
		return nil
	}))
	assert.Nil(t, trigger.cron)
}
