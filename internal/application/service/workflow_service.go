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

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// WorkflowPatch carries optional workflow fields to update. Nil fields
// are left untouched.
type WorkflowPatch struct {
	Name        *string
	Description *string
	Steps       []entity.Step
}

// WorkflowService manages workflow definitions
type WorkflowService interface {
	Create(ctx context.Context, actor entity.Actor, name, description string, steps []entity.Step) (*entity.WorkflowDefinition, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.WorkflowDefinition, error)
	Update(ctx context.Context, actor entity.Actor, id string, patch WorkflowPatch) (*entity.WorkflowDefinition, error)
	Delete(ctx context.Context, actor entity.Actor, id string) error
	List(ctx context.Context) ([]*entity.WorkflowDefinition, error)
}

type workflowServiceImpl struct {
	workflowRepo port.WorkflowRepository
	logger       Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(workflowRepo port.WorkflowRepository, logger Logger) WorkflowService {
	return &workflowServiceImpl{
		workflowRepo: workflowRepo,
		logger:       logger,
	}
}

// Create validates and persists a new workflow definition. Employees may
// not create workflows.
func (s *workflowServiceImpl) Create(ctx context.Context, actor entity.Actor, name, description string, steps []entity.Step) (*entity.WorkflowDefinition, error) {
	if actor.Role != entity.RoleManager && actor.Role != entity.RoleHRManager {
		return nil, fmt.Errorf("only managers and HR managers can create workflows: %w", approval.ErrForbidden)
	}

	if err := validateWorkflowInput(name, steps); err != nil {
		return nil, err
	}

	wf := &entity.WorkflowDefinition{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedBy:   actor.ID,
		Steps:       steps,
		CreatedAt:   time.Now(),
	}

	if err := s.workflowRepo.Create(ctx, wf); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow created", "id", wf.ID, "name", wf.Name, "steps", len(wf.Steps))
	return wf, nil
}

// Get retrieves a workflow. Only its creator or an HR manager may view a
// single definition.
func (s *workflowServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.WorkflowDefinition, error) {
	wf, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canManageWorkflow(actor, wf) {
		return nil, fmt.Errorf("workflow %s: %w", id, approval.ErrForbidden)
	}

	return wf, nil
}

// Update applies a patch to a workflow definition. Only its creator or an
// HR manager may modify it. In-flight requests keep their positional step
// pointer; replacing steps does not reindex them.
func (s *workflowServiceImpl) Update(ctx context.Context, actor entity.Actor, id string, patch WorkflowPatch) (*entity.WorkflowDefinition, error) {
	wf, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canManageWorkflow(actor, wf) {
		return nil, fmt.Errorf("workflow %s: %w", id, approval.ErrForbidden)
	}

	if patch.Name != nil {
		wf.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		wf.Description = *patch.Description
	}
	if patch.Steps != nil {
		wf.Steps = patch.Steps
	}

	if err := validateWorkflowInput(wf.Name, wf.Steps); err != nil {
		return nil, err
	}

	if err := s.workflowRepo.Update(ctx, wf); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow updated", "id", wf.ID)
	return wf, nil
}

// Delete removes a workflow definition under the same authorization rule
// as Update. Deletion is immediate; pending requests referencing the
// workflow are not touched.
func (s *workflowServiceImpl) Delete(ctx context.Context, actor entity.Actor, id string) error {
	wf, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !canManageWorkflow(actor, wf) {
		return fmt.Errorf("workflow %s: %w", id, approval.ErrForbidden)
	}

	if err := s.workflowRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Workflow deleted", "id", id)
	return nil
}

// List retrieves all workflow definitions
func (s *workflowServiceImpl) List(ctx context.Context) ([]*entity.WorkflowDefinition, error) {
	return s.workflowRepo.List(ctx)
}

func canManageWorkflow(actor entity.Actor, wf *entity.WorkflowDefinition) bool {
	return actor.Role == entity.RoleHRManager || wf.CreatedBy == actor.ID
}

func validateWorkflowInput(name string, steps []entity.Step) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required: %w", approval.ErrValidation)
	}
	if len(steps) == 0 {
		return fmt.Errorf("at least one step is required: %w", approval.ErrValidation)
	}
	for i, step := range steps {
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("step %d title is required: %w", i+1, approval.ErrValidation)
		}
		if !step.AssignedRole.IsValid() {
			return fmt.Errorf("step %d has unknown role %q: %w", i+1, step.AssignedRole, approval.ErrValidation)
		}
	}
	return nil
}
