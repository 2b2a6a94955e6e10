package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// ActivityLogService maintains the audit trail. Entries are recorded by
// clients on behalf of the authenticated actor; the full trail is
// restricted to HR managers.
type ActivityLogService interface {
	Record(ctx context.Context, actor entity.Actor, action, entityType, entityID string, at *time.Time) (*entity.ActivityLog, error)
	ListAll(ctx context.Context, actor entity.Actor) ([]*entity.ActivityLog, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.ActivityLog, error)
}

type activityLogServiceImpl struct {
	activityLogRepo port.ActivityLogRepository
	logger          Logger
}

// NewActivityLogService creates a new ActivityLogService
func NewActivityLogService(activityLogRepo port.ActivityLogRepository, logger Logger) ActivityLogService {
	return &activityLogServiceImpl{
		activityLogRepo: activityLogRepo,
		logger:          logger,
	}
}

// Record appends an entry attributed to the actor. A client-supplied
// timestamp is honored; otherwise the server clock is used.
func (s *activityLogServiceImpl) Record(ctx context.Context, actor entity.Actor, action, entityType, entityID string, at *time.Time) (*entity.ActivityLog, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, fmt.Errorf("action is required: %w", approval.ErrValidation)
	}

	timestamp := time.Now()
	if at != nil && !at.IsZero() {
		timestamp = *at
	}

	log := &entity.ActivityLog{
		ID:         uuid.NewString(),
		UserID:     actor.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  timestamp,
	}

	if err := s.activityLogRepo.Create(ctx, log); err != nil {
		return nil, err
	}

	s.logger.Info("Activity recorded", "user_id", actor.ID, "action", action)
	return log, nil
}

// ListAll retrieves the full audit trail. HR managers only.
func (s *activityLogServiceImpl) ListAll(ctx context.Context, actor entity.Actor) ([]*entity.ActivityLog, error) {
	if actor.Role != entity.RoleHRManager {
		return nil, fmt.Errorf("activity log listing: %w", approval.ErrForbidden)
	}
	return s.activityLogRepo.ListAll(ctx)
}

// ListByUser retrieves one user's trail, newest first
func (s *activityLogServiceImpl) ListByUser(ctx context.Context, userID string) ([]*entity.ActivityLog, error) {
	return s.activityLogRepo.ListByUser(ctx, userID)
}
