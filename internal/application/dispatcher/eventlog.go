package dispatcher

import (
	"context"

	"github.com/fleetops/tms/internal/domain/event"
)

// NewEventLog returns a handler that writes one structured log line per
// event. Subscribed to every event type it gives operators a post-commit
// activity trail that is independent of the per-recipient notification
// rows, which only exist for users the transition concerns.
func NewEventLog(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Info("Domain event",
			"event_id", evt.ID,
			"event_type", evt.Type.String(),
			"request_kind", string(evt.Kind),
			"request_id", evt.RequestID,
			"actor_id", evt.ActorID,
			"correlation_id", evt.CorrelationID,
		)
		return nil
	}
}

// RegisterEventLog subscribes the event log handler for all event types.
func RegisterEventLog(d Dispatcher, logger Logger) {
	handler := NewEventLog(logger)
	for _, t := range event.AllTypes() {
		d.SubscribeNamed(t, "event-log", handler)
	}
}
