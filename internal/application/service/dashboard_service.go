package service

import (
	"context"
	"time"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

const recentRequestLimit = 5

// Summary is a role-scoped aggregate over the requests an actor can see
type Summary struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	Approved       int             `json:"approved"`
	Rejected       int             `json:"rejected"`
	RecentRequests []RecentRequest `json:"recent_requests"`
}

// RecentRequest is a compact view of a request for the dashboard
type RecentRequest struct {
	ID           string               `json:"id"`
	WorkflowName string               `json:"workflow_name"`
	Status       entity.RequestStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
}

// DashboardService derives role-scoped summaries. Read-only projection;
// it shares the current-step-to-role relation with the approval engine
// but never mutates anything.
type DashboardService interface {
	Summary(ctx context.Context, actor entity.Actor) (*Summary, error)
}

type dashboardServiceImpl struct {
	requestRepo  port.RequestRepository
	workflowRepo port.WorkflowRepository
	logger       Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(requestRepo port.RequestRepository, workflowRepo port.WorkflowRepository, logger Logger) DashboardService {
	return &dashboardServiceImpl{
		requestRepo:  requestRepo,
		workflowRepo: workflowRepo,
		logger:       logger,
	}
}

// Summary builds the dashboard for an actor. HR managers see every
// request, managers see the pending requests currently actionable by a
// manager, everyone else sees their own. An empty candidate set produces
// a zeroed summary, not an error.
func (s *dashboardServiceImpl) Summary(ctx context.Context, actor entity.Actor) (*Summary, error) {
	workflows := make(map[string]*entity.WorkflowDefinition)

	requests, err := s.candidates(ctx, actor, workflows)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RecentRequests: []RecentRequest{}}
	if len(requests) == 0 {
		return summary, nil
	}
	for _, req := range requests {
		summary.Total++
		switch req.Status {
		case entity.StatusPending:
			summary.Pending++
		case entity.StatusApproved:
			summary.Approved++
		case entity.StatusRejected:
			summary.Rejected++
		}

		if len(summary.RecentRequests) < recentRequestLimit {
			summary.RecentRequests = append(summary.RecentRequests, RecentRequest{
				ID:           req.ID,
				WorkflowName: s.workflowName(ctx, workflows, req.WorkflowID),
				Status:       req.Status,
				CreatedAt:    req.CreatedAt,
			})
		}
	}

	return summary, nil
}

// candidates returns the role-scoped request set, newest first. Workflow
// lookups made along the way land in the shared cache so the summary
// build does not repeat them.
func (s *dashboardServiceImpl) candidates(ctx context.Context, actor entity.Actor, workflows map[string]*entity.WorkflowDefinition) ([]*entity.Request, error) {
	switch actor.Role {
	case entity.RoleHRManager:
		return s.requestRepo.ListAll(ctx)
	case entity.RoleManager:
		pending, err := s.requestRepo.ListPending(ctx)
		if err != nil {
			return nil, err
		}
		actionable := make([]*entity.Request, 0, len(pending))
		for _, req := range pending {
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
			if step, ok := wf.StepAt(req.CurrentStep); ok && step.AssignedRole == entity.RoleManager {
				actionable = append(actionable, req)
			}
		}
		return actionable, nil
	default:
		return s.requestRepo.ListByCreator(ctx, actor.ID)
	}
}

func (s *dashboardServiceImpl) workflowName(ctx context.Context, cache map[string]*entity.WorkflowDefinition, workflowID string) string {
	wf, ok := cache[workflowID]
	if !ok {
		loaded, err := s.workflowRepo.GetByID(ctx, workflowID)
		if err != nil {
			cache[workflowID] = nil
			return "Unknown Workflow"
		}
		wf = loaded
		cache[workflowID] = wf
	}
	if wf == nil {
		return "Unknown Workflow"
	}
	return wf.Name
}
