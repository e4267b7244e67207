package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDefinition is the sentinel wrapped by all definition validation
// failures.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// definitionSchema is the JSON Schema a raw definition document must satisfy
// before a workflow is ever stored or run. Definitions lacking "nodes", or
// where "nodes" is not an array, are rejected here.
var definitionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":         map[string]any{"type": "string"},
					"type":       map[string]any{"type": "string"},
					"name":       map[string]any{"type": "string"},
					"parameters": map[string]any{"type": "object"},
					"position": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"x": map[string]any{"type": "number"},
							"y": map[string]any{"type": "number"},
						},
					},
				},
				"required": []any{"id", "type", "name"},
			},
		},
		"connections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source":       map[string]any{"type": "string"},
					"target":       map[string]any{"type": "string"},
					"sourceOutput": map[string]any{"type": "string"},
					"targetInput":  map[string]any{"type": "string"},
				},
				"required": []any{"source", "target"},
			},
		},
		"settings": map[string]any{"type": "object"},
	},
	"required": []any{"nodes"},
}

// ValidateDefinitionDocument validates a raw definition document against the
// definition schema. Used by callers that accept untyped JSON before decoding
// into a Definition.
func ValidateDefinitionDocument(document map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(definitionSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, result.Errors()[0].String())
	}

	return nil
}

// Validate checks structural invariants of a decoded definition: required
// node fields, unique node ids, and that every connection references existing
// node ids. Violations are definition errors raised before any run exists.
func (d *Definition) Validate(validate *validator.Validate) error {
	if d == nil {
		return fmt.Errorf("%w: definition is missing", ErrInvalidDefinition)
	}

	err := validate.Struct(d)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	seen := make(map[string]bool, len(d.Nodes))

	for _, node := range d.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDefinition, node.ID)
		}

		seen[node.ID] = true
	}

	for _, conn := range d.Connections {
		if !seen[conn.Source] {
			return fmt.Errorf("%w: connection source %q references unknown node", ErrInvalidDefinition, conn.Source)
		}

		if !seen[conn.Target] {
			return fmt.Errorf("%w: connection target %q references unknown node", ErrInvalidDefinition, conn.Target)
		}
	}

	return nil
}
