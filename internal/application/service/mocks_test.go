package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nadersamir/approval-flow/internal/application/dispatcher"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
	"github.com/nadersamir/approval-flow/internal/domain/event"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockWorkflowRepo struct {
	createFunc  func(ctx context.Context, wf *entity.WorkflowDefinition) error
	getByIDFunc func(ctx context.Context, id string) (*entity.WorkflowDefinition, error)
	updateFunc  func(ctx context.Context, wf *entity.WorkflowDefinition) error
	deleteFunc  func(ctx context.Context, id string) error
	listFunc    func(ctx context.Context) ([]*entity.WorkflowDefinition, error)
}

func (m *mockWorkflowRepo) Create(ctx context.Context, wf *entity.WorkflowDefinition) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, wf)
	}
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("workflow %s: %w", id, approval.ErrNotFound)
}

func (m *mockWorkflowRepo) Update(ctx context.Context, wf *entity.WorkflowDefinition) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, wf)
	}
	return nil
}

func (m *mockWorkflowRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockWorkflowRepo) List(ctx context.Context) ([]*entity.WorkflowDefinition, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

type mockRequestRepo struct {
	createFunc          func(ctx context.Context, req *entity.Request) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.Request, error)
	listAllFunc         func(ctx context.Context) ([]*entity.Request, error)
	listByCreatorFunc   func(ctx context.Context, userID string) ([]*entity.Request, error)
	listPendingFunc     func(ctx context.Context) ([]*entity.Request, error)
	applyTransitionFunc func(ctx context.Context, requestID string, tr *approval.Transition) error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("request %s: %w", id, approval.ErrNotFound)
}

func (m *mockRequestRepo) ListAll(ctx context.Context) ([]*entity.Request, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListByCreator(ctx context.Context, userID string) ([]*entity.Request, error) {
	if m.listByCreatorFunc != nil {
		return m.listByCreatorFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListPending(ctx context.Context) ([]*entity.Request, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockRequestRepo) ApplyTransition(ctx context.Context, requestID string, tr *approval.Transition) error {
	if m.applyTransitionFunc != nil {
		return m.applyTransitionFunc(ctx, requestID, tr)
	}
	return nil
}

type mockUserRepo struct {
	createFunc          func(ctx context.Context, user *entity.User) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.User, error)
	getByEmailFunc      func(ctx context.Context, email string) (*entity.User, error)
	findFirstByRoleFunc func(ctx context.Context, role entity.Role) (*entity.User, error)
	setLastLoginFunc    func(ctx context.Context, id string, t time.Time) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("user %s: %w", id, approval.ErrNotFound)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, fmt.Errorf("user %s: %w", email, approval.ErrNotFound)
}

func (m *mockUserRepo) FindFirstByRole(ctx context.Context, role entity.Role) (*entity.User, error) {
	if m.findFirstByRoleFunc != nil {
		return m.findFirstByRoleFunc(ctx, role)
	}
	return nil, fmt.Errorf("role %s: %w", role, approval.ErrNotFound)
}

func (m *mockUserRepo) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	if m.setLastLoginFunc != nil {
		return m.setLastLoginFunc(ctx, id, t)
	}
	return nil
}

type mockNotificationRepo struct {
	mu       sync.Mutex
	stored   []*entity.Notification
	markRead []string

	createFunc     func(ctx context.Context, n *entity.Notification) error
	getByIDFunc    func(ctx context.Context, id string) (*entity.Notification, error)
	listByUserFunc func(ctx context.Context, userID string) ([]*entity.Notification, error)
	markReadFunc   func(ctx context.Context, id string) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, n)
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.stored {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("notification %s: %w", id, approval.ErrNotFound)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Notification, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Notification
	for _, n := range m.stored {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markRead = append(m.markRead, id)
	for _, n := range m.stored {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, approval.ErrNotFound)
}

type mockActivityLogRepo struct {
	mu     sync.Mutex
	stored []*entity.ActivityLog

	createFunc     func(ctx context.Context, log *entity.ActivityLog) error
	listAllFunc    func(ctx context.Context) ([]*entity.ActivityLog, error)
	listByUserFunc func(ctx context.Context, userID string) ([]*entity.ActivityLog, error)
}

func (m *mockActivityLogRepo) Create(ctx context.Context, log *entity.ActivityLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, log)
	return nil
}

func (m *mockActivityLogRepo) ListAll(ctx context.Context) ([]*entity.ActivityLog, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.ActivityLog, len(m.stored))
	copy(out, m.stored)
	return out, nil
}

func (m *mockActivityLogRepo) ListByUser(ctx context.Context, userID string) ([]*entity.ActivityLog, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ActivityLog
	for _, l := range m.stored {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

// mockDispatcher records dispatched events instead of routing them.
type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.record(evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.record(evt)
}

func (m *mockDispatcher) Close() error { return nil }

func (m *mockDispatcher) record(evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) dispatched() []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*event.Event, len(m.events))
	copy(out, m.events)
	return out
}
