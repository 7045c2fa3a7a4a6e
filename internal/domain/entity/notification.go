package entity

import (
	"time"

	"github.com/fleetops/tms/internal/domain/workflow"
)

// Notification type constants, keyed by request kind and transition
const (
	NotifyNewRequest      = "new_request"
	NotifyForwarded       = "forwarded"
	NotifyApproved        = "approved"
	NotifyRejected        = "rejected"
	NotifyVehicleAssigned = "assigned"
	NotifyServiceDue      = "service_due"
)

// Notification priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is a per-recipient side effect of a workflow transition.
// It is created by the dispatcher and mutated only by the recipient
// marking it read; the workflow engine itself never updates it.
type Notification struct {
	ID             int64         `json:"id"`
	RecipientID    int64         `json:"recipient_id"`
	Kind           workflow.Kind `json:"request_kind,omitempty"`
	RequestID      *int64        `json:"request_id,omitempty"`
	VehicleID      *int64        `json:"vehicle_id,omitempty"`
	Type           string        `json:"notification_type"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	Priority       string        `json:"priority"`
	ActionRequired bool          `json:"action_required"`
	IsRead         bool          `json:"is_read"`
	CreatedAt      time.Time     `json:"created_at"`
}
