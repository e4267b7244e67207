// Package registry maps node types to their handlers and dispatches node
// execution for the engine.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/protocol"
)

// Registry is the closed dispatch table from node type to handler. Unknown
// node types fall back to the generic passthrough handler; the fallback is an
// explicit, logged decision rather than a silent default.
type Registry struct {
	logger   *slog.Logger
	handlers map[models.NodeType]protocol.NodeHandler
	fallback protocol.NodeHandler
}

// NewRegistry creates an empty registry. Register handlers and a fallback
// before dispatching.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "node_registry"),
		handlers: make(map[models.NodeType]protocol.NodeHandler),
	}
}

// RegisterHandler adds a handler for its declared node type, replacing any
// previous registration.
func (r *Registry) RegisterHandler(handler protocol.NodeHandler) {
	r.handlers[handler.Type()] = handler
}

// RegisterFallback sets the handler used for node types with no registration.
func (r *Registry) RegisterFallback(handler protocol.NodeHandler) {
	r.fallback = handler
}

// Handler resolves the handler for a node type, reporting whether the
// fallback was used.
func (r *Registry) Handler(nodeType models.NodeType) (protocol.NodeHandler, bool) {
	handler, ok := r.handlers[nodeType]
	if ok {
		return handler, false
	}

	return r.fallback, true
}

// Execute dispatches a node to its handler. A handler failure is logged at
// error level with the node's id and type and returned to the engine: node
// execution errors are fatal to the run, with no retry in the core.
func (r *Registry) Execute(ctx context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	handler, usedFallback := r.Handler(node.Type)
	if handler == nil {
		err := fmt.Errorf("no handler registered for node type %q and no fallback configured", node.Type)
		r.logger.ErrorContext(ctx, "Node dispatch failed",
			"node_id", node.ID, "node_type", node.Type, "error", err)

		return nil, err
	}

	if usedFallback {
		r.logger.InfoContext(ctx, "Unknown node type, dispatching to generic passthrough",
			"node_id", node.ID, "node_type", node.Type)
	}

	result, err := handler.Execute(ctx, node, runCtx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Node execution failed",
			"node_id", node.ID, "node_type", node.Type, "error", err)

		return nil, fmt.Errorf("node %s (%s) failed: %w", node.ID, node.Type, err)
	}

	return result, nil
}
