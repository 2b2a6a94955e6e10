package entity

import "time"

// RequestStatus tracks a request through the approval chain
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// IsTerminal returns true once no further decisions are accepted.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is an approve/reject action on a single step
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// IsValid returns true if the decision is one of the defined constants.
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Attachment is an opaque descriptor for an uploaded file. The service
// stores and echoes these; it never reads file bytes.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	StorageRef   string `json:"storage_ref"`
}

// RequestData holds the submitted form content of a request
type RequestData struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Approval records one decision on one step: who decided what, when.
// Never edited or removed once appended.
type Approval struct {
	StepOrder  int       `json:"step_order"`
	ApprovedBy string    `json:"approved_by"`
	Decision   Decision  `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Request is an instance submitted against a workflow definition.
// CurrentStep is a 1-based index into the workflow's steps and is the
// single source of truth for routing; it only ever moves forward while
// the request is pending.
type Request struct {
	ID          string        `json:"id"`
	WorkflowID  string        `json:"workflow_id"`
	CreatedBy   string        `json:"created_by"`
	Data        RequestData   `json:"data"`
	CurrentStep int           `json:"current_step"`
	Status      RequestStatus `json:"status"`
	Approvals   []Approval    `json:"approvals"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ApprovalFor returns the approval recorded for the given step, if any.
func (r *Request) ApprovalFor(stepOrder int) (Approval, bool) {
	for _, a := range r.Approvals {
		if a.StepOrder == stepOrder {
			return a, true
		}
	}
	return Approval{}, false
}
