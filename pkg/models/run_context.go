package models

// RunContext is the ephemeral, single-owner carrier of state during one run.
// Data holds the most recent node's output and is replaced by the engine
// after every node execution. A RunContext is never shared across runs.
type RunContext struct {
	ExecutionID string
	WorkflowID  string
	InputData   map[string]any
	Data        map[string]any
}

// NewRunContext builds the run context the engine threads through a single
// execution.
func NewRunContext(executionID, workflowID string, inputData map[string]any) *RunContext {
	if inputData == nil {
		inputData = make(map[string]any)
	}

	return &RunContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		InputData:   inputData,
	}
}

// TemplateScope exposes the context as the flat identifier scope used by
// {{name}} placeholder resolution in node parameters.
func (c *RunContext) TemplateScope() map[string]any {
	return map[string]any{
		"input_data":   c.InputData,
		"workflow_id":  c.WorkflowID,
		"execution_id": c.ExecutionID,
		"data":         c.Data,
	}
}
