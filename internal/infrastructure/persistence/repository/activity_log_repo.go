package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// ActivityLogRepository implements port.ActivityLogRepository on sqlite
type ActivityLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *sql.DB, logger *zap.Logger) port.ActivityLogRepository {
	return &ActivityLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an activity log entry
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create activity log", zap.String("user_id", log.UserID), zap.Error(err))
		return fmt.Errorf("failed to create activity log: %w", err)
	}

	return nil
}

// ListAll retrieves every activity log entry, newest first
func (r *ActivityLogRepository) ListAll(ctx context.Context) ([]*entity.ActivityLog, error) {
	return r.list(ctx, `
		SELECT id, user_id, action, entity_type, entity_id, timestamp
		FROM activity_logs
		ORDER BY timestamp DESC
	`)
}

// ListByUser retrieves a user's activity log entries, newest first
func (r *ActivityLogRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ActivityLog, error) {
	return r.list(ctx, `
		SELECT id, user_id, action, entity_type, entity_id, timestamp
		FROM activity_logs
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`, userID)
}

func (r *ActivityLogRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list activity logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.ActivityLog
	for rows.Next() {
		var log entity.ActivityLog
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.EntityType, &log.EntityID, &log.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Verify interface compliance
var _ port.ActivityLogRepository = (*ActivityLogRepository)(nil)
