// Package engine runs workflow executions: it derives the node order from the
// definition graph, dispatches each node through the registry and drives the
// execution record through its state machine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nodeflow/nodeflow/pkg/eventbus"
	"github.com/nodeflow/nodeflow/pkg/events"
	"github.com/nodeflow/nodeflow/pkg/graph"
	"github.com/nodeflow/nodeflow/pkg/log"
	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/otelhelper"
	"github.com/nodeflow/nodeflow/pkg/persistence"
	"github.com/nodeflow/nodeflow/pkg/registry"
)

// ErrNotRunnable is returned when Run is asked to start an execution that is
// not in the pending state.
var ErrNotRunnable = fmt.Errorf("execution is not pending")

// Engine executes one run at a time per call. It owns the execution record
// between the running transition and the terminal transition; concurrent runs
// of distinct executions share nothing but the store and the event bus.
type Engine struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	workerID    string
}

// NewEngine wires an engine. The event bus and tracer are optional; a nil
// event bus disables lifecycle notifications and a nil tracer disables spans.
func NewEngine(
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
	workerID string,
) *Engine {
	return &Engine{
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
		logger:      logger.With("module", "engine", "worker_id", workerID),
		workerID:    workerID,
	}
}

// Run executes the pending execution with the given id to a terminal state.
// The returned error reports node or infrastructure failure; a run that ends
// failed because one of its nodes failed still returns that node's error.
func (e *Engine) Run(ctx context.Context, executionID string) error {
	execution, err := e.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusPending {
		return fmt.Errorf("%w: execution %s is %s", ErrNotRunnable, executionID, execution.Status)
	}

	workflow, err := e.persistence.WorkflowRepository().GetByID(ctx, execution.WorkflowID)
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", execution.WorkflowID, err)
	}

	logger := log.WithExecution(e.logger, workflow.ID, execution.ID)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.WorkerIDKey, e.workerID),
		)
		defer span.End()
	}

	startedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusRunning
	execution.StartedAt = &startedAt

	if err := e.persistence.ExecutionRepository().Update(ctx, execution); err != nil {
		return fmt.Errorf("failed to mark execution running: %w", err)
	}

	logger.InfoContext(ctx, "Execution started", "node_count", len(workflow.Definition.Nodes))
	e.appendLog(ctx, execution.ID, models.LogLevelInfo, "Execution started", nil)
	e.publish(ctx, workflow.ID, &events.ExecutionStarted{
		BaseEvent: e.newEvent(events.ExecutionStartedEvent, workflow.ID, execution.ID),
		StartedAt: startedAt,
	})

	order, hadCycle := graph.Order(workflow.Definition.Nodes, workflow.Definition.Connections)
	if hadCycle {
		logger.WarnContext(ctx, "Connection graph contains a cycle, executing nodes in declaration order")

		if execution.Metadata == nil {
			execution.Metadata = make(map[string]any)
		}

		execution.Metadata["scheduler_fallback"] = true

		e.appendLog(ctx, execution.ID, models.LogLevelWarning,
			"Connection graph contains a cycle, falling back to declaration order", nil)
	}

	runCtx := models.NewRunContext(execution.ID, workflow.ID, execution.InputData)
	outputs := make(map[string]any, len(order))

	for i, nodeID := range order {
		cancelled, err := e.checkCancelled(ctx, execution)
		if cancelled || err != nil {
			return err
		}

		node := workflow.Definition.NodeByID(nodeID)
		if node == nil {
			return e.fail(ctx, execution, startedAt,
				fmt.Errorf("scheduled node %s is not in the definition", nodeID), nodeID)
		}

		result, err := e.executeNode(ctx, node, runCtx)
		if err != nil {
			return e.fail(ctx, execution, startedAt, err, node.ID)
		}

		outputs[node.ID] = result
		runCtx.Data = result

		logger.DebugContext(ctx, "Node completed", "node_id", node.ID, "node_type", node.Type)
		e.appendLog(ctx, execution.ID, models.LogLevelInfo,
			fmt.Sprintf("Node %s completed", node.ID),
			map[string]any{"node_id": node.ID, "node_type": string(node.Type)})

		currentNode := node.Name
		if currentNode == "" {
			currentNode = node.ID
		}

		e.publish(ctx, workflow.ID, &events.ExecutionProgress{
			BaseEvent:      e.newEvent(events.ExecutionProgressEvent, workflow.ID, execution.ID),
			Progress:       float64(i+1) / float64(len(order)) * 100,
			CurrentNode:    currentNode,
			CompletedNodes: order[:i+1],
		})
	}

	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &completedAt
	execution.OutputData = outputs

	if err := e.persistence.ExecutionRepository().Update(ctx, execution); err != nil {
		return fmt.Errorf("failed to mark execution completed: %w", err)
	}

	logger.InfoContext(ctx, "Execution completed", "duration", completedAt.Sub(startedAt))
	e.appendLog(ctx, execution.ID, models.LogLevelInfo, "Execution completed", nil)
	e.publish(ctx, workflow.ID, &events.ExecutionCompleted{
		BaseEvent:   e.newEvent(events.ExecutionCompletedEvent, workflow.ID, execution.ID),
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
	})

	return nil
}

func (e *Engine) executeNode(ctx context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
			attribute.String(otelhelper.NodeNameKey, node.Name),
		)
		defer span.End()

		result, err := e.registry.Execute(ctx, node, runCtx)
		if err != nil {
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.NodeIDKey, node.ID))
		}

		return result, err
	}

	return e.registry.Execute(ctx, node, runCtx)
}

// checkCancelled runs the cooperative cancellation check between nodes: a
// cancelled context or an execution record flipped to cancelled by the
// monitoring surface both stop the run before the next node starts.
func (e *Engine) checkCancelled(ctx context.Context, execution *models.Execution) (bool, error) {
	select {
	case <-ctx.Done():
		e.cancel(ctx, execution)

		return true, ctx.Err()
	default:
	}

	stored, err := e.persistence.ExecutionRepository().GetByID(ctx, execution.ID)
	if err != nil {
		return true, fmt.Errorf("failed to re-read execution %s: %w", execution.ID, err)
	}

	if stored.Status == models.ExecutionStatusCancelled {
		execution.Status = models.ExecutionStatusCancelled
		e.cancel(ctx, execution)

		return true, nil
	}

	return false, nil
}

func (e *Engine) cancel(ctx context.Context, execution *models.Execution) {
	// The context may already be cancelled; terminal bookkeeping still has
	// to reach the store and the bus.
	ctx = context.WithoutCancel(ctx)

	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusCancelled
	execution.CompletedAt = &completedAt

	if err := e.persistence.ExecutionRepository().Update(ctx, execution); err != nil {
		e.logger.ErrorContext(ctx, "Failed to mark execution cancelled",
			"execution_id", execution.ID, "error", err)
	}

	e.appendLog(ctx, execution.ID, models.LogLevelWarning, "Execution cancelled", nil)
	e.publish(ctx, execution.WorkflowID, &events.ExecutionCancelled{
		BaseEvent:   e.newEvent(events.ExecutionCancelledEvent, execution.WorkflowID, execution.ID),
		CompletedAt: completedAt,
	})
}

func (e *Engine) fail(ctx context.Context, execution *models.Execution, startedAt time.Time, nodeErr error, nodeID string) error {
	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.CompletedAt = &completedAt
	execution.ErrorMessage = nodeErr.Error()

	if err := e.persistence.ExecutionRepository().Update(ctx, execution); err != nil {
		e.logger.ErrorContext(ctx, "Failed to mark execution failed",
			"execution_id", execution.ID, "error", err)
	}

	e.logger.ErrorContext(ctx, "Execution failed",
		"execution_id", execution.ID, "node_id", nodeID, "error", nodeErr)
	e.appendLog(ctx, execution.ID, models.LogLevelError, nodeErr.Error(),
		map[string]any{"node_id": nodeID, "error": fmt.Sprintf("%+v", nodeErr)})
	e.publish(ctx, execution.WorkflowID, &events.ExecutionFailed{
		BaseEvent:   e.newEvent(events.ExecutionFailedEvent, execution.WorkflowID, execution.ID),
		Error:       nodeErr.Error(),
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
	})

	return nodeErr
}

func (e *Engine) newEvent(eventType events.EventType, workflowID, executionID string) events.BaseEvent {
	event := events.NewBaseEvent(eventType, workflowID, executionID)
	event.WorkerID = e.workerID

	return event
}

// publish is fire-and-forget: a bus failure is logged and never affects the
// run's state. Events are keyed by workflow id so subscribers can filter.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish execution event",
			"event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) appendLog(ctx context.Context, executionID string, level models.LogLevel, message string, metadata map[string]any) {
	entry := &models.ExecutionLog{
		ExecutionID: executionID,
		Level:       level,
		Message:     message,
		Metadata:    metadata,
	}

	if err := e.persistence.ExecutionLogRepository().Append(ctx, entry); err != nil {
		e.logger.WarnContext(ctx, "Failed to append execution log",
			"execution_id", executionID, "error", err)
	}
}
