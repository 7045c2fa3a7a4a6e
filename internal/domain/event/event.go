package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tms/internal/domain/workflow"
)

// Event represents a domain event emitted after a committed transition.
// Events drive post-commit side effects (notification dispatch); they are
// never part of the transaction that produced them.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	Kind          workflow.Kind          `json:"request_kind,omitempty"`
	RequestID     int64                  `json:"request_id,omitempty"`
	ActorID       int64                  `json:"actor_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// New creates a new domain event with a generated ID and timestamp
func New(eventType Type, kind workflow.Kind, requestID, actorID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Kind:          kind,
		RequestID:     requestID,
		ActorID:       actorID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewWithCorrelation creates an event linked to an existing correlation chain
func NewWithCorrelation(eventType Type, kind workflow.Kind, requestID, actorID int64, payload map[string]interface{}, correlationID string) *Event {
	evt := New(eventType, kind, requestID, actorID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// GetPayloadInt64 retrieves an int64 value from the payload
func (e *Event) GetPayloadInt64(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
