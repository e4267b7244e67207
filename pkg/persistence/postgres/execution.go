package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
		id
	  , workflow_id
	  , input_data
	  , output_data
	  , status
	  , error_message
	  , metadata
	  , created_at
	  , started_at
	  , completed_at
`

// Create inserts a new execution record.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewExecutionError("Create", "", fmt.Errorf("failed to generate execution ID: %w", err))
		}

		execution.ID = id.String()
	}

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = time.Now().UTC()
	}

	inputJSON, err := marshalNullableJSON(execution.InputData)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, fmt.Errorf("failed to marshal input data: %w", err))
	}

	outputJSON, err := marshalNullableJSON(execution.OutputData)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, fmt.Errorf("failed to marshal output data: %w", err))
	}

	metadataJSON, err := marshalNullableJSON(execution.Metadata)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	query := `
		INSERT INTO executions (id, workflow_id, input_data, output_data, status, error_message, metadata, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		inputJSON,
		outputJSON,
		string(execution.Status),
		nullableString(execution.ErrorMessage),
		metadataJSON,
		execution.CreatedAt,
		execution.StartedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Create", execution.ID, persistence.ErrExecutionAlreadyExists)
	}

	return nil
}

// GetByID returns the execution with the given id.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

// Update overwrites the stored execution record.
func (r *ExecutionRepository) Update(ctx context.Context, execution *models.Execution) error {
	inputJSON, err := marshalNullableJSON(execution.InputData)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to marshal input data: %w", err))
	}

	outputJSON, err := marshalNullableJSON(execution.OutputData)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to marshal output data: %w", err))
	}

	metadataJSON, err := marshalNullableJSON(execution.Metadata)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	query := `
		UPDATE executions SET
			input_data = $2
		  , output_data = $3
		  , status = $4
		  , error_message = $5
		  , metadata = $6
		  , started_at = $7
		  , completed_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		inputJSON,
		outputJSON,
		string(execution.Status),
		nullableString(execution.ErrorMessage),
		metadataJSON,
		execution.StartedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrExecutionNotFound)
	}

	return nil
}

// ListByWorkflow returns all executions of a workflow, oldest first.
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE workflow_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution    models.Execution
		inputJSON    []byte
		outputJSON   []byte
		metadataJSON []byte
		status       string
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&inputJSON,
		&outputJSON,
		&status,
		&errorMessage,
		&metadataJSON,
		&execution.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Status = models.ExecutionStatus(status)
	execution.ErrorMessage = errorMessage.String

	if startedAt.Valid {
		startedAtValue := startedAt.Time
		execution.StartedAt = &startedAtValue
	}

	if completedAt.Valid {
		completedAtValue := completedAt.Time
		execution.CompletedAt = &completedAtValue
	}

	if err := unmarshalNullableJSON(inputJSON, &execution.InputData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input data: %w", err)
	}

	if err := unmarshalNullableJSON(outputJSON, &execution.OutputData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output data: %w", err)
	}

	if err := unmarshalNullableJSON(metadataJSON, &execution.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &execution, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}

	return value
}

// ExecutionLogRepository handles execution log database operations.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

// Append stores a log entry at the tail of its execution's stream.
func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLog) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate log ID: %w", err)
		}

		entry.ID = id.String()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := marshalNullableJSON(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal log metadata: %w", err)
	}

	query := `
		INSERT INTO execution_logs (id, execution_id, level, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ExecutionID,
		string(entry.Level),
		entry.Message,
		metadataJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution log: %w", err)
	}

	return nil
}

// ListByExecution returns the log stream of an execution in append order.
func (r *ExecutionLogRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, execution_id, level, message, metadata, created_at
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var (
			entry        models.ExecutionLog
			level        string
			metadataJSON []byte
		)

		err := rows.Scan(&entry.ID, &entry.ExecutionID, &level, &entry.Message, &metadataJSON, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		entry.Level = models.LogLevel(level)

		if err := unmarshalNullableJSON(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log metadata: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return entries, nil
}
