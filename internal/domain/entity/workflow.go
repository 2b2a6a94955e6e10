package entity

import "time"

// Step is one position in a workflow definition. AssignedRole is the role
// authorized to decide the step. Order is display-only; actual sequencing
// is positional (slice index).
type Step struct {
	Title        string `json:"title"`
	Order        int    `json:"order"`
	AssignedRole Role   `json:"assigned_role"`
}

// WorkflowDefinition is an ordered list of approval steps. Requests
// reference steps by 1-based position, so step positions must be treated
// as immutable once requests are in flight.
type WorkflowDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	Steps       []Step    `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
}

// StepAt returns the step at the given 1-based position.
func (w *WorkflowDefinition) StepAt(position int) (Step, bool) {
	if position < 1 || position > len(w.Steps) {
		return Step{}, false
	}
	return w.Steps[position-1], true
}
