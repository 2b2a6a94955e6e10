package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// Event is a domain event emitted by the approval engine. Events address
// either a concrete user (RecipientID) or a role (RecipientRole) to be
// resolved at dispatch time. Dispatch is fire-and-forget: a failed
// handler never affects the committed transition the event came from.
type Event struct {
	ID            string            `json:"id"`
	Type          Type              `json:"type"`
	RequestID     string            `json:"request_id"`
	RecipientID   string            `json:"recipient_id,omitempty"`
	RecipientRole entity.Role       `json:"recipient_role,omitempty"`
	Message       string            `json:"message"`
	Meta          map[string]string `json:"meta,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// New creates a new domain event with auto-generated ID and timestamp
func New(eventType Type, requestID, recipientID, message string, meta map[string]string) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		RequestID:   requestID,
		RecipientID: recipientID,
		Message:     message,
		Meta:        meta,
		Timestamp:   time.Now(),
	}
}
