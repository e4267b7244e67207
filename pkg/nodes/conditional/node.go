// Package conditional provides the condition node for workflow graph
// execution.
package conditional

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/condition"
	"github.com/nodeflow/nodeflow/pkg/models"
)

// Handler executes condition nodes by delegating to the condition evaluator.
// Evaluation failures degrade to a false result with an error annotation;
// they never fail the run.
type Handler struct{}

// NewHandler creates a condition node handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeCondition
}

// Execute evaluates the node's condition parameter against the run context.
func (h *Handler) Execute(_ context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	expr, _ := node.Parameters["condition"].(string)

	result, err := condition.Evaluate(expr, runCtx.TemplateScope())
	if err != nil {
		return map[string]any{
			"condition_result": false,
			"error":            err.Error(),
		}, nil
	}

	return map[string]any{
		"condition_result": result,
	}, nil
}
