package entity

import (
	"time"

	"github.com/fleetops/tms/internal/domain/workflow"
)

// AuditLogEntry is an immutable record of an action taken on a request.
// Entries are append-only; the engine never mutates or deletes them.
type AuditLogEntry struct {
	ID        int64         `json:"id"`
	Kind      workflow.Kind `json:"request_kind"`
	RequestID int64         `json:"request_id"`
	ActorID   int64         `json:"actor_id"`
	Action    string        `json:"action"`
	Remarks   string        `json:"remarks,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
