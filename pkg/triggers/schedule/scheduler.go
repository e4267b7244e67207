package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nodeflow/nodeflow/pkg/persistence"
)

// MetadataKey is the workflow metadata key holding the cron expression a
// workflow runs on. Workflows without it are never scheduled.
const MetadataKey = "schedule"

// Scheduler builds one schedule trigger per executable stored workflow that
// carries a cron expression in its metadata, firing the callback on each
// tick. A workflow with an invalid expression is skipped with a warning, not
// an error.
type Scheduler struct {
	persistence persistence.Persistence
	callback    Callback
	logger      *slog.Logger

	mu       sync.Mutex
	triggers map[string]*Trigger
}

func NewScheduler(store persistence.Persistence, callback Callback, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: store,
		callback:    callback,
		logger:      logger.With("module", "schedule_scheduler"),
		triggers:    make(map[string]*Trigger),
	}
}

// Start lists stored workflows and starts a trigger for each executable one
// with a schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	workflows, err := s.persistence.WorkflowRepository().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows for scheduling: %w", err)
	}

	for _, workflow := range workflows {
		cronExpr, ok := workflow.Metadata[MetadataKey].(string)
		if !ok || cronExpr == "" {
			continue
		}

		if !workflow.IsExecutable() {
			s.logger.InfoContext(ctx, "Skipping schedule for non-executable workflow",
				"workflow_id", workflow.ID, "status", workflow.Status)

			continue
		}

		trigger, err := NewTrigger(map[string]any{
			"id":          "schedule-" + workflow.ID,
			"workflow_id": workflow.ID,
			"cron":        cronExpr,
		}, s.logger)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow with invalid schedule",
				"workflow_id", workflow.ID, "cron", cronExpr, "error", err)

			continue
		}

		if err := trigger.Start(ctx, s.callback); err != nil {
			s.logger.WarnContext(ctx, "Failed to start schedule trigger",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		s.mu.Lock()
		s.triggers[workflow.ID] = trigger
		s.mu.Unlock()
	}

	s.logger.InfoContext(ctx, "Schedule triggers started", "count", len(s.ScheduledWorkflows()))

	return nil
}

// ScheduledWorkflows returns the ids of workflows with an active trigger.
func (s *Scheduler) ScheduledWorkflows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.triggers))
	for id := range s.triggers {
		ids = append(ids, id)
	}

	return ids
}

// Stop stops all active triggers.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, trigger := range s.triggers {
		if err := trigger.Stop(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to stop schedule trigger",
				"workflow_id", id, "error", err)
		}
	}

	s.triggers = make(map[string]*Trigger)
}
