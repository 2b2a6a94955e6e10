package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated    Type = "request.created"
	TypeRequestApproved   Type = "request.approved"
	TypeRequestRejected   Type = "request.rejected"
	TypeDecisionConfirmed Type = "decision.confirmed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeDecisionConfirmed:
		return true
	}
	return false
}
