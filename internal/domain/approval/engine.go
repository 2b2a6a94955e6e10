// Package approval implements the approval state machine: given a request,
// its workflow definition and a decision, it computes the next request state
// and the events to emit. The engine is pure; committing the transition
// atomically is the caller's job.
package approval

import (
	"fmt"
	"time"

	"github.com/nadersamir/approval-flow/internal/domain/entity"
	"github.com/nadersamir/approval-flow/internal/domain/event"
)

// Transition is the computed effect of one decision. FromStep is the step
// the decision was taken on and must be used as the compare-and-swap key
// when persisting; either the whole transition commits or nothing does.
type Transition struct {
	Approval entity.Approval
	FromStep int
	NextStep int
	Status   entity.RequestStatus
	Events   []*event.Event
}

// Decide validates a decision against the request's current step and
// computes the resulting transition. Preconditions are checked in order
// and the first failure wins; on failure the request is untouched.
func Decide(
	req *entity.Request,
	wf *entity.WorkflowDefinition,
	actor entity.Actor,
	decision entity.Decision,
	comment string,
	now time.Time,
) (*Transition, error) {
	if req.Status != entity.StatusPending {
		return nil, fmt.Errorf("request %s is %s: %w", req.ID, req.Status, ErrAlreadyFinalized)
	}

	step, ok := wf.StepAt(req.CurrentStep)
	if !ok {
		return nil, fmt.Errorf("request %s step %d of workflow %s: %w",
			req.ID, req.CurrentStep, wf.ID, ErrInvalidStep)
	}

	// HRManager is a structural override: it may decide any step
	// regardless of the assigned role.
	if actor.Role != step.AssignedRole && actor.Role != entity.RoleHRManager {
		return nil, fmt.Errorf("step %d requires role %s: %w",
			req.CurrentStep, step.AssignedRole, ErrForbidden)
	}

	if _, decided := req.ApprovalFor(req.CurrentStep); decided {
		return nil, fmt.Errorf("request %s step %d: %w", req.ID, req.CurrentStep, ErrAlreadyDecided)
	}

	if !decision.IsValid() {
		return nil, fmt.Errorf("decision must be approved or rejected: %w", ErrValidation)
	}

	tr := &Transition{
		Approval: entity.Approval{
			StepOrder:  req.CurrentStep,
			ApprovedBy: actor.ID,
			Decision:   decision,
			Comment:    comment,
			Timestamp:  now,
		},
		FromStep: req.CurrentStep,
		NextStep: req.CurrentStep,
		Status:   entity.StatusPending,
	}

	switch {
	case decision == entity.DecisionRejected:
		// Rejection short-circuits the remaining chain; the step pointer
		// stays where the rejection happened.
		tr.Status = entity.StatusRejected
	case req.CurrentStep == len(wf.Steps):
		tr.Status = entity.StatusApproved
	default:
		tr.NextStep = req.CurrentStep + 1
	}

	tr.Events = decisionEvents(req, actor, decision, tr.Status)
	return tr, nil
}

// Apply folds a committed transition into the request. Used by in-memory
// stores and tests; the sqlite repository applies the same effect in SQL.
func (tr *Transition) Apply(req *entity.Request) {
	req.Approvals = append(req.Approvals, tr.Approval)
	req.CurrentStep = tr.NextStep
	req.Status = tr.Status
}

// decisionEvents builds the events for a committed decision: the outcome
// addressed to the request's creator and a confirmation addressed to the
// deciding actor.
func decisionEvents(req *entity.Request, actor entity.Actor, decision entity.Decision, status entity.RequestStatus) []*event.Event {
	outcome := "approved"
	outcomeType := event.TypeRequestApproved
	if decision == entity.DecisionRejected {
		outcome = "rejected"
		outcomeType = event.TypeRequestRejected
	}

	// Each event gets its own meta map; they diverge below.
	outcomeMeta := map[string]string{"request_id": req.ID}
	if status == entity.StatusApproved {
		outcomeMeta["final"] = "true"
	}

	return []*event.Event{
		event.New(outcomeType, req.ID, req.CreatedBy,
			fmt.Sprintf("Your request (%s) was %s by %s.", req.ID, outcome, actor.Role), outcomeMeta),
		event.New(event.TypeDecisionConfirmed, req.ID, actor.ID,
			fmt.Sprintf("Your decision (%s) on request (%s) was recorded.", decision, req.ID),
			map[string]string{"request_id": req.ID}),
	}
}

// CreationEvents builds the events for a newly created request: a
// reviewer-assignment notice addressed to whoever holds the first step's
// role. Recipient resolution by role happens at dispatch time.
func CreationEvents(req *entity.Request, wf *entity.WorkflowDefinition) []*event.Event {
	first, ok := wf.StepAt(1)
	if !ok {
		return nil
	}
	evt := event.New(event.TypeRequestCreated, req.ID, "",
		fmt.Sprintf("A new request (%s) was created and is waiting for review.", wf.Name),
		map[string]string{"request_id": req.ID, "workflow_id": wf.ID})
	evt.RecipientRole = first.AssignedRole
	return []*event.Event{evt}
}
