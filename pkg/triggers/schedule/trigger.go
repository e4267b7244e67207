// Package schedule starts workflow runs on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Callback creates a run for the trigger's workflow with the given input data.
type Callback func(ctx context.Context, workflowID string, inputData map[string]any) error

// Trigger fires its callback on a cron schedule. Overlapping fires are
// skipped: a tick that arrives while the previous callback is still running
// is dropped rather than queued.
type Trigger struct {
	ID         string
	CronExpr   string
	WorkflowID string
	Enabled    bool

	cron     *cron.Cron
	callback Callback
	logger   *slog.Logger
}

// NewTrigger builds a schedule trigger from its node configuration.
func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	id, _ := config["id"].(string)
	cronExpr, _ := config["cron"].(string)
	workflowID, _ := config["workflow_id"].(string)

	trigger := &Trigger{
		ID:         id,
		CronExpr:   cronExpr,
		WorkflowID: workflowID,
		Enabled:    true,
		logger: logger.With(
			"module", "schedule_trigger",
			"id", id,
			"cron", cronExpr,
			"workflow_id", workflowID,
		),
	}

	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.ID == "" {
		return errors.New("schedule trigger ID is required")
	}

	if t.WorkflowID == "" {
		return errors.New("schedule trigger workflow_id is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(t.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback Callback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "ScheduleTrigger is disabled.")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting ScheduleTrigger")
	t.callback = callback

	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := t.cron.AddFunc(t.CronExpr, t.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for trigger %s: %w", t.ID, err)
	}

	t.logger.InfoContext(ctx, "Added cron job for trigger", "entry_id", id)
	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron job triggered")

	inputData := map[string]any{
		"trigger":      "schedule",
		"trigger_id":   t.ID,
		"triggered_at": time.Now().UTC().Format(time.RFC3339),
	}

	if err := t.callback(context.Background(), t.WorkflowID, inputData); err != nil {
		t.logger.Error("Error starting workflow run for trigger", "error", err)
	}
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping ScheduleTrigger", "id", t.ID)

	if t.cron != nil {
		t.cron.Stop()
	}

	return nil
}
