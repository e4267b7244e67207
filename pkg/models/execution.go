package models

import "time"

// ExecutionStatus defines the lifecycle state of an execution run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status is one of the terminal states. A run
// enters exactly one terminal state exactly once.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	case ExecutionStatusPending, ExecutionStatusRunning:
		return false
	default:
		return false
	}
}

// Execution is one instantiation of a workflow definition against specific
// input data. The engine has exclusive write access to the record between the
// running transition and the terminal transition.
type Execution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"             validate:"required"`
	InputData    map[string]any  `json:"input_data"`
	OutputData   map[string]any  `json:"output_data,omitempty"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// LogLevel classifies execution log entries.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ExecutionLog is one entry in the append-only, creation-ordered log stream
// of a run. A run has a single producer: the engine executing it.
type ExecutionLog struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id"`
	Level       LogLevel       `json:"level"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
