// Package testutil provides test data builders for workflow models.
package testutil

import (
	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/pkg/models"
)

// CreateTestNode creates a node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:         uuid.New().String(),
		Type:       models.NodeTypeGeneric,
		Name:       "Test Node",
		Parameters: map[string]any{},
		Position:   models.Position{X: 100, Y: 200},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithParameters sets the node parameters.
func WithParameters(parameters map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Parameters = parameters
	}
}

// CreateTestDefinition creates a definition from the given nodes, connecting
// them in a linear chain.
func CreateTestDefinition(nodes ...*models.Node) *models.Definition {
	connections := make([]*models.Connection, 0, len(nodes))

	for i := 1; i < len(nodes); i++ {
		connections = append(connections, &models.Connection{
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return &models.Definition{
		Nodes:       nodes,
		Connections: connections,
	}
}

// CreateTestWorkflow creates an active workflow around the given definition.
func CreateTestWorkflow(definition *models.Definition, overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:         uuid.New().String(),
		Name:       "Test Workflow",
		Status:     models.WorkflowStatusActive,
		Definition: definition,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithStatus sets the workflow status.
func WithStatus(status models.WorkflowStatus) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Status = status
	}
}
