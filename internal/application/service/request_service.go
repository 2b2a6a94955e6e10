package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadersamir/approval-flow/internal/application/dispatcher"
	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// RequestService manages requests through their approval chain
type RequestService interface {
	Create(ctx context.Context, actor entity.Actor, workflowID, title, description string, attachments []entity.Attachment) (*entity.Request, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Request, error)
	ListFor(ctx context.Context, actor entity.Actor) ([]*entity.Request, error)
	ListPending(ctx context.Context, role entity.Role) ([]*entity.Request, error)
	Decide(ctx context.Context, actor entity.Actor, requestID string, decision entity.Decision, comment string) (*entity.Request, error)
}

type requestServiceImpl struct {
	requestRepo  port.RequestRepository
	workflowRepo port.WorkflowRepository
	events       dispatcher.Dispatcher
	logger       Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	workflowRepo port.WorkflowRepository,
	events dispatcher.Dispatcher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo:  requestRepo,
		workflowRepo: workflowRepo,
		events:       events,
		logger:       logger,
	}
}

// Create submits a new request against a workflow. The request starts at
// step 1 pending and a reviewer-assignment notice is emitted for whoever
// holds the first step's role.
func (s *requestServiceImpl) Create(ctx context.Context, actor entity.Actor, workflowID, title, description string, attachments []entity.Attachment) (*entity.Request, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("title and description are required: %w", approval.ErrValidation)
	}

	wf, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	req := &entity.Request{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		CreatedBy:  actor.ID,
		Data: entity.RequestData{
			Title:       title,
			Description: description,
			Attachments: attachments,
		},
		CurrentStep: 1,
		Status:      entity.StatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Request created",
		"id", req.ID,
		"workflow_id", wf.ID,
		"created_by", actor.ID,
	)

	for _, evt := range approval.CreationEvents(req, wf) {
		s.events.DispatchAsync(ctx, evt)
	}

	return req, nil
}

// Get retrieves a request. Visible to its creator, an HR manager, or the
// reviewer responsible for its current step.
func (s *requestServiceImpl) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == entity.RoleHRManager || req.CreatedBy == actor.ID {
		return req, nil
	}

	// Reviewer of the current step may also view the request.
	if wf, err := s.workflowRepo.GetByID(ctx, req.WorkflowID); err == nil {
		if step, ok := wf.StepAt(req.CurrentStep); ok && step.AssignedRole == actor.Role {
			return req, nil
		}
	}

	return nil, fmt.Errorf("request %s: %w", id, approval.ErrForbidden)
}

// ListFor retrieves the requests visible to the actor: every request for
// an HR manager, the actor's own requests otherwise.
func (s *requestServiceImpl) ListFor(ctx context.Context, actor entity.Actor) ([]*entity.Request, error) {
	if actor.Role == entity.RoleHRManager {
		return s.requestRepo.ListAll(ctx)
	}
	return s.requestRepo.ListByCreator(ctx, actor.ID)
}

// ListPending retrieves pending requests whose current step is assigned
// to the given role.
func (s *requestServiceImpl) ListPending(ctx context.Context, role entity.Role) ([]*entity.Request, error) {
	pending, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return s.filterByCurrentStepRole(ctx, pending, role), nil
}

// Decide runs one decision through the approval engine and commits the
// resulting transition atomically. Events are dispatched asynchronously
// after the commit; their delivery never affects the decision.
func (s *requestServiceImpl) Decide(ctx context.Context, actor entity.Actor, requestID string, decision entity.Decision, comment string) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	wf, err := s.workflowRepo.GetByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	tr, err := approval.Decide(req, wf, actor, decision, comment, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.ApplyTransition(ctx, req.ID, tr); err != nil {
		if errors.Is(err, approval.ErrConcurrencyConflict) {
			return nil, s.resolveConflict(ctx, requestID, tr.FromStep, err)
		}
		return nil, err
	}

	tr.Apply(req)

	s.logger.Info("Decision recorded",
		"request_id", req.ID,
		"step", tr.FromStep,
		"decision", decision,
		"status", req.Status,
		"decided_by", actor.ID,
	)

	for _, evt := range tr.Events {
		s.events.DispatchAsync(ctx, evt)
	}

	return req, nil
}

// resolveConflict re-reads the request after a lost conditional update to
// report what actually happened: the step was decided by someone else, the
// request was finalized, or the caller should re-validate and retry.
func (s *requestServiceImpl) resolveConflict(ctx context.Context, requestID string, step int, conflict error) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return conflict
	}
	if req.Status != entity.StatusPending {
		return fmt.Errorf("request %s is %s: %w", requestID, req.Status, approval.ErrAlreadyFinalized)
	}
	if _, decided := req.ApprovalFor(step); decided {
		return fmt.Errorf("request %s step %d: %w", requestID, step, approval.ErrAlreadyDecided)
	}
	return conflict
}

// filterByCurrentStepRole keeps requests whose current workflow step is
// assigned to the given role. Requests whose workflow was deleted are
// skipped.
func (s *requestServiceImpl) filterByCurrentStepRole(ctx context.Context, requests []*entity.Request, role entity.Role) []*entity.Request {
	workflows := make(map[string]*entity.WorkflowDefinition)
	filtered := make([]*entity.Request, 0, len(requests))

	for _, req := range requests {
		wf, ok := workflows[req.WorkflowID]
		if !ok {
			loaded, err := s.workflowRepo.GetByID(ctx, req.WorkflowID)
			if err != nil {
				workflows[req.WorkflowID] = nil
				continue
			}
			wf = loaded
			workflows[req.WorkflowID] = wf
		}
		if wf == nil {
			continue
		}
		if step, ok := wf.StepAt(req.CurrentStep); ok && step.AssignedRole == role {
			filtered = append(filtered, req)
		}
	}

	return filtered
}
