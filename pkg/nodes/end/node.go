// Package end provides the terminal marker node for workflow graph execution.
package end

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// Handler executes end nodes: it wraps the most recent node output as the
// workflow's final data.
type Handler struct{}

// NewHandler creates an end node handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeEnd
}

// Execute returns the completion payload carrying the last node's output.
func (h *Handler) Execute(_ context.Context, _ *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	finalData := runCtx.Data
	if finalData == nil {
		finalData = make(map[string]any)
	}

	return map[string]any{
		"status":     "completed",
		"final_data": finalData,
	}, nil
}
