package port

import (
	"context"
	"time"

	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// WorkflowRepository defines persistence operations for WorkflowDefinition
type WorkflowRepository interface {
	Create(ctx context.Context, wf *entity.WorkflowDefinition) error
	GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error)
	Update(ctx context.Context, wf *entity.WorkflowDefinition) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.WorkflowDefinition, error)
}

// RequestRepository defines persistence operations for Request.
// ApplyTransition is the single conditional-update primitive: it appends
// the approval and moves the step/status in one transaction, keyed on the
// currentStep value the transition was computed from. A lost race returns
// approval.ErrConcurrencyConflict and leaves the request untouched.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	ListAll(ctx context.Context) ([]*entity.Request, error)
	ListByCreator(ctx context.Context, userID string) ([]*entity.Request, error)
	ListPending(ctx context.Context) ([]*entity.Request, error)
	ApplyTransition(ctx context.Context, requestID string, tr *approval.Transition) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	FindFirstByRole(ctx context.Context, role entity.Role) (*entity.User, error)
	SetLastLogin(ctx context.Context, id string, t time.Time) error
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// ActivityLogRepository defines persistence operations for ActivityLog
type ActivityLogRepository interface {
	Create(ctx context.Context, log *entity.ActivityLog) error
	ListAll(ctx context.Context) ([]*entity.ActivityLog, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.ActivityLog, error)
}
