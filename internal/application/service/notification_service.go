package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
	"github.com/nadersamir/approval-flow/internal/domain/event"
)

// NotificationService persists and serves user notifications. It doubles
// as the event handler wired into the dispatcher: engine events become
// notification rows here.
type NotificationService interface {
	port.Notifier

	HandleEvent(ctx context.Context, evt *event.Event) error
	Create(ctx context.Context, recipientID, message, notificationType string, meta map[string]string) (*entity.Notification, error)
	ListFor(ctx context.Context, userID string) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) (*entity.Notification, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	userRepo         port.UserRepository
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo port.NotificationRepository, userRepo port.UserRepository, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

// Notify stores a notification addressed to a user
func (s *notificationServiceImpl) Notify(ctx context.Context, recipientID, message, notificationType string, meta map[string]string) error {
	_, err := s.Create(ctx, recipientID, message, notificationType, meta)
	return err
}

// Create stores a notification and returns it. Also serves the manual
// creation endpoint.
func (s *notificationServiceImpl) Create(ctx context.Context, recipientID, message, notificationType string, meta map[string]string) (*entity.Notification, error) {
	if message == "" {
		return nil, fmt.Errorf("message is required: %w", approval.ErrValidation)
	}

	n := &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    recipientID,
		Message:   message,
		Type:      notificationType,
		Meta:      meta,
		CreatedAt: time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to notify %s: %w", recipientID, err)
	}

	return n, nil
}

// HandleEvent turns a domain event into a stored notification. Events
// addressed to a role are resolved to the first active user holding it;
// if no such user exists the event is dropped with a log line.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	recipientID := evt.RecipientID
	if recipientID == "" {
		if evt.RecipientRole == "" {
			s.logger.Error("Event has no recipient", "event_id", evt.ID, "type", evt.Type)
			return nil
		}
		user, err := s.userRepo.FindFirstByRole(ctx, evt.RecipientRole)
		if err != nil {
			s.logger.Info("No user found for role, dropping event",
				"event_id", evt.ID, "role", evt.RecipientRole)
			return nil
		}
		recipientID = user.ID
	}

	return s.Notify(ctx, recipientID, evt.Message, notificationType(evt.Type), evt.Meta)
}

// ListFor retrieves a user's notifications, newest first
func (s *notificationServiceImpl) ListFor(ctx context.Context, userID string) ([]*entity.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

// MarkRead flags a notification as read and returns it
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id string) (*entity.Notification, error) {
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	return s.notificationRepo.GetByID(ctx, id)
}

func notificationType(t event.Type) string {
	switch t {
	case event.TypeRequestCreated:
		return entity.NotificationTypeRequestCreated
	case event.TypeRequestApproved:
		return entity.NotificationTypeApproval
	case event.TypeRequestRejected:
		return entity.NotificationTypeRejection
	case event.TypeDecisionConfirmed:
		return entity.NotificationTypeConfirmation
	}
	return "notification"
}
