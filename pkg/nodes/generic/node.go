// Package generic provides the passthrough handler used for node types with
// no dedicated implementation.
package generic

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// Handler passes the current run data through unchanged. The registry
// dispatches unknown node types here and logs the fallback.
type Handler struct{}

// NewHandler creates a passthrough node handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeGeneric
}

// Execute returns the previous node's output unchanged.
func (h *Handler) Execute(_ context.Context, _ *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	if runCtx.Data == nil {
		return make(map[string]any), nil
	}

	return runCtx.Data, nil
}
