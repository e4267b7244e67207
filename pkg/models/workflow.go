// Package models defines the core domain models for node-based workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Executable
	WorkflowStatusInactive WorkflowStatus = "inactive" // Temporarily disabled
	WorkflowStatusArchived WorkflowStatus = "archived" // Historical, not executable
)

// NodeType identifies the handler used to execute a node. Types outside this
// set are accepted by validation and dispatched to the generic handler.
type NodeType string

const (
	NodeTypeStart         NodeType = "start"
	NodeTypeHTTPRequest   NodeType = "http_request"
	NodeTypeDataTransform NodeType = "data_transform"
	NodeTypeCondition     NodeType = "condition"
	NodeTypeEnd           NodeType = "end"
	NodeTypeGeneric       NodeType = "generic"
)

// Position is display-only placement of a node in the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a single typed unit of work in a workflow definition.
type Node struct {
	ID         string         `json:"id"         validate:"required"`
	Type       NodeType       `json:"type"       validate:"required"`
	Name       string         `json:"name"       validate:"required,min=1"`
	Parameters map[string]any `json:"parameters"`
	Position   Position       `json:"position"`
}

// Default port names for connections that omit them.
const (
	DefaultSourceOutput = "main"
	DefaultTargetInput  = "0"
)

// Connection is a directed edge between two node ids defining execution
// dependency.
type Connection struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceOutput string `json:"sourceOutput,omitempty"`
	TargetInput  string `json:"targetInput,omitempty"`
}

// Definition is the immutable graph input to a run: nodes, connections and
// opaque settings (e.g. execution order policy) passed through untouched.
type Definition struct {
	Nodes       []*Node        `json:"nodes"                 validate:"required,dive"`
	Connections []*Connection  `json:"connections,omitempty" validate:"dive"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// NodeByID returns the node with the given id, or nil when absent.
func (d *Definition) NodeByID(id string) *Node {
	for _, node := range d.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// Workflow represents a stored workflow and its definition document.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Definition  *Definition    `json:"definition"  validate:"required"`
	Owner       string         `json:"owner"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsExecutable reports whether new runs may be created for the workflow.
func (w *Workflow) IsExecutable() bool {
	return w.Status == WorkflowStatusActive
}
