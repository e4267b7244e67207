// Package services provides the business operations behind the HTTP surface:
// workflow management, execution creation and cancellation.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors indicating client mistakes (4xx responses).
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrWorkflowNotRunnable   = errors.New("workflow is not active")
	ErrExecutionNotStoppable = errors.New("execution is already in a terminal state")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowNotRunnable) ||
		errors.Is(err, ErrExecutionNotStoppable)
}
