package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/persistence"
)

// ExecutionRepository stores one JSON document per execution under
// <root>/executions.
type ExecutionRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{dir: filepath.Join(root, "executions")}
}

func (r *ExecutionRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.dir, 0o755)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	if _, err := os.Stat(r.path(execution.ID)); err == nil {
		return persistence.NewExecutionError("Create", execution.ID, persistence.ErrExecutionAlreadyExists)
	}

	return r.write(execution)
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, fmt.Errorf("failed to decode execution: %w", err))
	}

	return &execution, nil
}

func (r *ExecutionRepository) Update(_ context.Context, execution *models.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path(execution.ID)); os.IsNotExist(err) {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrExecutionNotFound)
	}

	return r.write(execution)
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	r.mu.RLock()
	entries, err := os.ReadDir(r.dir)
	r.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	var executions []*models.Execution

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution, err := r.GetByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.Before(executions[j].CreatedAt)
	})

	return executions, nil
}

func (r *ExecutionRepository) write(execution *models.Execution) error {
	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return persistence.NewExecutionError("write", execution.ID, err)
	}

	err = os.WriteFile(r.path(execution.ID), data, 0o644)
	if err != nil {
		return persistence.NewExecutionError("write", execution.ID, err)
	}

	return nil
}

// ExecutionLogRepository appends one JSON line per entry to
// <root>/logs/<execution_id>.jsonl, preserving append order.
type ExecutionLogRepository struct {
	dir string
	mu  sync.Mutex
}

func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{dir: filepath.Join(root, "logs")}
}

func (r *ExecutionLogRepository) path(executionID string) string {
	return filepath.Join(r.dir, executionID+".jsonl")
}

func (r *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode log entry: %w", err)
	}

	f, err := os.OpenFile(r.path(entry.ExecutionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	_, err = f.Write(append(line, '\n'))
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByExecution(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	var logs []*models.ExecutionLog

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var entry models.ExecutionLog

		err := json.Unmarshal(scanner.Bytes(), &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode log entry: %w", err)
		}

		logs = append(logs, &entry)
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	return logs, nil
}
