// Package file provides a JSON-file persistence implementation used for
// local development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/nodeflow/nodeflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on a directory of JSON
// documents: workflows/<id>.json, executions/<id>.json and one JSON-lines
// log file per execution under logs/.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	logRepo       *ExecutionLogRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the root is stripped, matching database-url style
// configuration.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
		logRepo:       NewExecutionLogRepository(cleanRoot),
	}
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

func (fp *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return fp.logRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file persistence there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
