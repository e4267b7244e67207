// Package protocol defines the contracts between the execution engine and
// pluggable node handlers.
package protocol

import (
	"context"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// NodeHandler executes one node type. Handlers receive the node's definition
// and the single-owner run context; they return a result map that becomes the
// run context's data for the next node.
//
// Handlers contain node-level failures where the contract says so (HTTP
// errors, bad JSON paths, condition failures become error payloads); an error
// return is fatal to the whole run.
type NodeHandler interface {
	// Type returns the node type this handler executes.
	Type() models.NodeType

	// Execute runs the node against the current run context.
	Execute(ctx context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error)
}
