package entity

import "time"

// Notification types
const (
	NotificationTypeRequestCreated = "request_created"
	NotificationTypeApproval       = "approved"
	NotificationTypeRejection      = "rejected"
	NotificationTypeConfirmation   = "confirmation"
)

// Notification is a stored message addressed to a user. Delivery beyond
// persistence (email, IM) is an external concern.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	Meta      map[string]string `json:"meta,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}
