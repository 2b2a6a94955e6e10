package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// WorkflowRepository implements port.WorkflowRepository on sqlite.
// Steps are stored as a JSON blob; their ordering is positional and the
// blob is read and written as a whole.
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new workflow definition
func (r *WorkflowRepository) Create(ctx context.Context, wf *entity.WorkflowDefinition) error {
	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, description, created_by, steps, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		wf.ID,
		wf.Name,
		wf.Description,
		wf.CreatedBy,
		string(steps),
		wf.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow", zap.String("id", wf.ID), zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	return nil
}

// GetByID retrieves a workflow definition by ID
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, created_by, steps, created_at
		FROM workflows
		WHERE id = ?
	`

	wf, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow %s: %w", id, approval.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get workflow", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	return wf, nil
}

// Update overwrites a workflow definition
func (r *WorkflowRepository) Update(ctx context.Context, wf *entity.WorkflowDefinition) error {
	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `UPDATE workflows SET name = ?, description = ?, steps = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, wf.Name, wf.Description, string(steps), wf.ID)
	if err != nil {
		r.logger.Error("Failed to update workflow", zap.String("id", wf.ID), zap.Error(err))
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow %s: %w", wf.ID, approval.ErrNotFound)
	}

	return nil
}

// Delete removes a workflow definition. Requests referencing it are left
// in place; there is no cascade.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete workflow", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow %s: %w", id, approval.ErrNotFound)
	}

	return nil
}

// List retrieves all workflow definitions, newest first
func (r *WorkflowRepository) List(ctx context.Context) ([]*entity.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, created_by, steps, created_at
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list workflows", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*entity.WorkflowDefinition
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}

	return workflows, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkflow(row rowScanner) (*entity.WorkflowDefinition, error) {
	var wf entity.WorkflowDefinition
	var steps string

	err := row.Scan(&wf.ID, &wf.Name, &wf.Description, &wf.CreatedBy, &steps, &wf.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &wf, nil
}

// Verify interface compliance
var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
