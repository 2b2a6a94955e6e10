package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// RequestRepository implements port.RequestRepository on sqlite.
// Requests and their approvals live in separate tables; approvals are
// append-only and loaded alongside the request.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	query := `
		INSERT INTO requests (id, workflow_id, created_by, data, current_step, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		req.ID,
		req.WorkflowID,
		req.CreatedBy,
		string(data),
		req.CurrentStep,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request with its approval log
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query := `
		SELECT id, workflow_id, created_by, data, current_step, status, created_at
		FROM requests
		WHERE id = ?
	`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request %s: %w", id, approval.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if err := r.loadApprovals(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// ApplyTransition commits a decision as a single atomic conditional
// operation: the step/status update is keyed on the currentStep value the
// transition was computed from, and the approval row is appended in the
// same transaction. If another decision landed first the conditional
// update matches zero rows and the whole transaction is rolled back with
// approval.ErrConcurrencyConflict.
func (r *RequestRepository) ApplyTransition(ctx context.Context, requestID string, tr *approval.Transition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET current_step = ?, status = ? WHERE id = ? AND status = ? AND current_step = ?`,
		tr.NextStep, tr.Status, requestID, entity.StatusPending, tr.FromStep,
	)
	if err != nil {
		r.logger.Error("Failed to update request step", zap.String("id", requestID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %s step %d: %w", requestID, tr.FromStep, approval.ErrConcurrencyConflict)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO approvals (request_id, step_order, approved_by, decision, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		requestID,
		tr.Approval.StepOrder,
		tr.Approval.ApprovedBy,
		tr.Approval.Decision,
		tr.Approval.Comment,
		tr.Approval.Timestamp,
	)
	if err != nil {
		// UNIQUE(request_id, step_order) trips here if a racing decision
		// slipped past the conditional update.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("request %s step %d: %w", requestID, tr.FromStep, approval.ErrConcurrencyConflict)
		}
		r.logger.Error("Failed to append approval", zap.String("id", requestID), zap.Error(err))
		return fmt.Errorf("failed to append approval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transition", zap.String("id", requestID), zap.Error(err))
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	return nil
}

// ListAll retrieves all requests, newest first
func (r *RequestRepository) ListAll(ctx context.Context) ([]*entity.Request, error) {
	return r.list(ctx, `
		SELECT id, workflow_id, created_by, data, current_step, status, created_at
		FROM requests
		ORDER BY created_at DESC
	`)
}

// ListByCreator retrieves requests created by the given user, newest first
func (r *RequestRepository) ListByCreator(ctx context.Context, userID string) ([]*entity.Request, error) {
	return r.list(ctx, `
		SELECT id, workflow_id, created_by, data, current_step, status, created_at
		FROM requests
		WHERE created_by = ?
		ORDER BY created_at DESC
	`, userID)
}

// ListPending retrieves all requests still moving through their chain
func (r *RequestRepository) ListPending(ctx context.Context) ([]*entity.Request, error) {
	return r.list(ctx, `
		SELECT id, workflow_id, created_by, data, current_step, status, created_at
		FROM requests
		WHERE status = ?
		ORDER BY created_at DESC
	`, entity.StatusPending)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, req := range requests {
		if err := r.loadApprovals(ctx, req); err != nil {
			return nil, err
		}
	}

	return requests, nil
}

func (r *RequestRepository) loadApprovals(ctx context.Context, req *entity.Request) error {
	query := `
		SELECT step_order, approved_by, decision, comment, created_at
		FROM approvals
		WHERE request_id = ?
		ORDER BY step_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, req.ID)
	if err != nil {
		r.logger.Error("Failed to load approvals", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to load approvals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a entity.Approval
		if err := rows.Scan(&a.StepOrder, &a.ApprovedBy, &a.Decision, &a.Comment, &a.Timestamp); err != nil {
			return fmt.Errorf("failed to scan approval: %w", err)
		}
		req.Approvals = append(req.Approvals, a)
	}

	return rows.Err()
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	var data string

	err := row.Scan(&req.ID, &req.WorkflowID, &req.CreatedBy, &data, &req.CurrentStep, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &req.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
