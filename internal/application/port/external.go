package port

import "context"

// Notifier delivers a message to a recipient. Implementations are
// fire-and-forget collaborators: a delivery failure must never roll back
// or block the decision that produced the notification.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message, notificationType string, meta map[string]string) error
}
