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

// NotificationRepository implements port.NotificationRepository on sqlite
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	query := `
		INSERT INTO notifications (id, user_id, message, type, meta, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Message,
		n.Type,
		string(meta),
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("user_id", n.UserID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	query := `
		SELECT id, user_id, message, type, meta, is_read, created_at
		FROM notifications
		WHERE id = ?
	`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification %s: %w", id, approval.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get notification", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, message, type, meta, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %s: %w", id, approval.ErrNotFound)
	}

	return nil
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var n entity.Notification
	var meta string

	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &meta, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &n.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
		}
	}

	return &n, nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
