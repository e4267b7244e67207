// Package start provides the entry marker node for workflow graph execution.
package start

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// Handler executes start nodes: it seeds the run with the execution's input
// data.
type Handler struct{}

// NewHandler creates a start node handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeStart
}

// Execute returns the run's input data as the starting payload.
func (h *Handler) Execute(_ context.Context, _ *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	return map[string]any{
		"status": "started",
		"data":   runCtx.InputData,
	}, nil
}
