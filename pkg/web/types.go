// Package web provides HTTP handlers and REST API endpoints for workflow and
// execution management.
package web

import "github.com/nodeflow/nodeflow/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string             `json:"name"                 validate:"required,min=3"`
	Description string             `json:"description"`
	Definition  *models.Definition `json:"definition"           validate:"required"`
	Status      string             `json:"status,omitempty"     validate:"omitempty,oneof=draft active inactive archived"`
	Owner       string             `json:"owner"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string            `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string            `json:"description,omitempty"`
	Definition  *models.Definition `json:"definition,omitempty"`
	Status      *string            `json:"status,omitempty"      validate:"omitempty,oneof=draft active inactive archived"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// RunWorkflowRequest represents the request body for starting a new execution.
type RunWorkflowRequest struct {
	InputData map[string]any `json:"input_data"`
}
