// Package transform provides the data transformation node for workflow graph
// execution.
package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/template"
)

// Named transformations supported by the node. Unknown transformation names
// pass the input through unchanged.
const (
	TransformationJSONExtract  = "json_extract"
	TransformationFormatString = "format_string"
)

// Handler executes data_transform nodes. A missing JSON path yields an error
// payload, not a run failure.
type Handler struct{}

// NewHandler creates a data transform node handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeDataTransform
}

// Execute applies the transformation named in the node parameters to the
// current run data.
func (h *Handler) Execute(_ context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	transformation, _ := node.Parameters["transformation"].(string)

	inputData := runCtx.Data
	if inputData == nil {
		inputData = make(map[string]any)
	}

	switch transformation {
	case TransformationJSONExtract:
		path, _ := node.Parameters["path"].(string)

		return extractJSONPath(inputData, path), nil
	case TransformationFormatString:
		tmpl, _ := node.Parameters["template"].(string)

		return map[string]any{
			"result": template.ResolveString(tmpl, runCtx.TemplateScope()),
		}, nil
	default:
		return inputData, nil
	}
}

// extractJSONPath walks a dot-separated path through nested maps and slices.
// Numeric path segments index slices. Any unreachable segment produces an
// error payload.
func extractJSONPath(data any, path string) map[string]any {
	result := data

	for _, part := range strings.Split(path, ".") {
		switch current := result.(type) {
		case map[string]any:
			value, ok := current[part]
			if !ok {
				return pathError(path)
			}

			result = value
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(current) {
				return pathError(path)
			}

			result = current[index]
		default:
			return pathError(path)
		}
	}

	return map[string]any{"result": result}
}

func pathError(path string) map[string]any {
	return map[string]any{"error": fmt.Sprintf("Cannot access path %s", path)}
}
