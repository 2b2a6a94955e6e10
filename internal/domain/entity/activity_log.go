package entity

import "time"

// ActivityLog is an audit-trail entry recording an action a user took,
// optionally tied to the entity it touched. Append-only.
type ActivityLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
