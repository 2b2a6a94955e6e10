package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadersamir/approval-flow/internal/domain/entity"
	"github.com/nadersamir/approval-flow/internal/domain/event"
)

func twoStepWorkflow() *entity.WorkflowDefinition {
	return &entity.WorkflowDefinition{
		ID:        "wf-1",
		Name:      "Expense approval",
		CreatedBy: "mgr-1",
		Steps: []entity.Step{
			{Title: "Manager review", Order: 1, AssignedRole: entity.RoleManager},
			{Title: "HR sign-off", Order: 2, AssignedRole: entity.RoleHRManager},
		},
		CreatedAt: time.Now(),
	}
}

func pendingRequest(step int) *entity.Request {
	return &entity.Request{
		ID:          "req-1",
		WorkflowID:  "wf-1",
		CreatedBy:   "emp-1",
		Data:        entity.RequestData{Title: "Laptop", Description: "Replacement laptop"},
		CurrentStep: step,
		Status:      entity.StatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestDecide_Preconditions(t *testing.T) {
	now := time.Now()
	manager := entity.Actor{ID: "mgr-1", Role: entity.RoleManager}

	tests := []struct {
		name     string
		request  *entity.Request
		workflow *entity.WorkflowDefinition
		actor    entity.Actor
		decision entity.Decision
		wantErr  error
	}{
		{
			name: "finalized request rejects further decisions",
			request: func() *entity.Request {
				r := pendingRequest(1)
				r.Status = entity.StatusRejected
				return r
			}(),
			workflow: twoStepWorkflow(),
			actor:    manager,
			decision: entity.DecisionApproved,
			wantErr:  ErrAlreadyFinalized,
		},
		{
			name:     "current step out of range",
			request:  pendingRequest(3),
			workflow: twoStepWorkflow(),
			actor:    manager,
			decision: entity.DecisionApproved,
			wantErr:  ErrInvalidStep,
		},
		{
			name:     "employee cannot decide a manager step",
			request:  pendingRequest(1),
			workflow: twoStepWorkflow(),
			actor:    entity.Actor{ID: "emp-1", Role: entity.RoleEmployee},
			decision: entity.DecisionApproved,
			wantErr:  ErrForbidden,
		},
		{
			name: "step already decided",
			request: func() *entity.Request {
				r := pendingRequest(1)
				r.Approvals = []entity.Approval{{StepOrder: 1, ApprovedBy: "mgr-2", Decision: entity.DecisionApproved}}
				return r
			}(),
			workflow: twoStepWorkflow(),
			actor:    manager,
			decision: entity.DecisionApproved,
			wantErr:  ErrAlreadyDecided,
		},
		{
			name:     "unknown decision value",
			request:  pendingRequest(1),
			workflow: twoStepWorkflow(),
			actor:    manager,
			decision: entity.Decision("maybe"),
			wantErr:  ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.request.Approvals)
			tr, err := Decide(tt.request, tt.workflow, tt.actor, tt.decision, "", now)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			assert.Nil(t, tr)
			// A failed decision leaves the request untouched.
			assert.Len(t, tt.request.Approvals, before)
		})
	}
}

func TestDecide_PreconditionOrder(t *testing.T) {
	// A finalized request must report AlreadyFinalized even when the actor
	// would also be forbidden; the first failing check wins.
	req := pendingRequest(1)
	req.Status = entity.StatusApproved

	_, err := Decide(req, twoStepWorkflow(), entity.Actor{ID: "emp-1", Role: entity.RoleEmployee}, entity.DecisionApproved, "", time.Now())
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
}

func TestDecide_ApproveAdvancesOneStep(t *testing.T) {
	req := pendingRequest(1)
	wf := twoStepWorkflow()
	manager := entity.Actor{ID: "mgr-1", Role: entity.RoleManager}

	tr, err := Decide(req, wf, manager, entity.DecisionApproved, "looks fine", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, tr.FromStep)
	assert.Equal(t, 2, tr.NextStep)
	assert.Equal(t, entity.StatusPending, tr.Status)
	assert.Equal(t, 1, tr.Approval.StepOrder)
	assert.Equal(t, "mgr-1", tr.Approval.ApprovedBy)
	assert.Equal(t, "looks fine", tr.Approval.Comment)

	tr.Apply(req)
	assert.Equal(t, 2, req.CurrentStep)
	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Len(t, req.Approvals, 1)
}

func TestDecide_ApproveLastStepFinalizes(t *testing.T) {
	req := pendingRequest(2)
	wf := twoStepWorkflow()
	hr := entity.Actor{ID: "hr-1", Role: entity.RoleHRManager}

	tr, err := Decide(req, wf, hr, entity.DecisionApproved, "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, tr.Status)
	assert.Equal(t, 2, tr.NextStep, "step pointer stays on the final step")

	tr.Apply(req)
	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.Equal(t, 2, req.CurrentStep)
}

func TestDecide_RejectShortCircuits(t *testing.T) {
	req := pendingRequest(1)
	wf := twoStepWorkflow()
	manager := entity.Actor{ID: "mgr-1", Role: entity.RoleManager}

	tr, err := Decide(req, wf, manager, entity.DecisionRejected, "missing receipts", time.Now())
	require.NoError(t, err)

	assert.Equal(t, entity.StatusRejected, tr.Status)
	assert.Equal(t, 1, tr.NextStep, "rejection leaves the step pointer in place")

	tr.Apply(req)
	assert.Equal(t, entity.StatusRejected, req.Status)
	assert.Equal(t, 1, req.CurrentStep)
	require.Len(t, req.Approvals, 1)
	assert.Equal(t, entity.DecisionRejected, req.Approvals[0].Decision)

	// Terminal: no step-2 decision is possible afterwards.
	_, err = Decide(req, wf, entity.Actor{ID: "hr-1", Role: entity.RoleHRManager}, entity.DecisionApproved, "", time.Now())
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
}

func TestDecide_HRManagerOverridesAssignedRole(t *testing.T) {
	req := pendingRequest(1) // step 1 is assigned to manager
	wf := twoStepWorkflow()
	hr := entity.Actor{ID: "hr-1", Role: entity.RoleHRManager}

	tr, err := Decide(req, wf, hr, entity.DecisionApproved, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "hr-1", tr.Approval.ApprovedBy)
	assert.Equal(t, 2, tr.NextStep)
}

func TestDecide_FullChain(t *testing.T) {
	// Scenario: manager approves step 1, HR manager approves step 2.
	req := pendingRequest(1)
	wf := twoStepWorkflow()

	tr, err := Decide(req, wf, entity.Actor{ID: "mgr-1", Role: entity.RoleManager}, entity.DecisionApproved, "", time.Now())
	require.NoError(t, err)
	tr.Apply(req)
	assert.Equal(t, 2, req.CurrentStep)
	assert.Equal(t, entity.StatusPending, req.Status)

	tr, err = Decide(req, wf, entity.Actor{ID: "hr-1", Role: entity.RoleHRManager}, entity.DecisionApproved, "", time.Now())
	require.NoError(t, err)
	tr.Apply(req)
	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.Len(t, req.Approvals, 2)
}

func TestDecide_Events(t *testing.T) {
	req := pendingRequest(1)
	wf := twoStepWorkflow()
	manager := entity.Actor{ID: "mgr-1", Role: entity.RoleManager}

	tr, err := Decide(req, wf, manager, entity.DecisionRejected, "", time.Now())
	require.NoError(t, err)
	require.Len(t, tr.Events, 2)

	outcome := tr.Events[0]
	assert.Equal(t, event.TypeRequestRejected, outcome.Type)
	assert.Equal(t, req.CreatedBy, outcome.RecipientID)

	confirmation := tr.Events[1]
	assert.Equal(t, event.TypeDecisionConfirmed, confirmation.Type)
	assert.Equal(t, manager.ID, confirmation.RecipientID)
}

func TestDecide_FinalMetaOnlyOnOutcomeEvent(t *testing.T) {
	req := pendingRequest(2)
	wf := twoStepWorkflow()
	hr := entity.Actor{ID: "hr-1", Role: entity.RoleHRManager}

	tr, err := Decide(req, wf, hr, entity.DecisionApproved, "", time.Now())
	require.NoError(t, err)
	require.Len(t, tr.Events, 2)

	assert.Equal(t, "true", tr.Events[0].Meta["final"])
	assert.NotContains(t, tr.Events[1].Meta, "final")
}

func TestCreationEvents(t *testing.T) {
	req := pendingRequest(1)
	wf := twoStepWorkflow()

	evts := CreationEvents(req, wf)
	require.Len(t, evts, 1)
	assert.Equal(t, event.TypeRequestCreated, evts[0].Type)
	assert.Equal(t, entity.RoleManager, evts[0].RecipientRole, "notice goes to the first step's role")
	assert.Empty(t, evts[0].RecipientID)
}
