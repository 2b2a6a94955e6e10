package dispatcher

import (
	"context"

	"github.com/nadersamir/approval-flow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error
