package event

import (
	"testing"

	"github.com/fleetops/tms/internal/domain/workflow"
)

func TestNew(t *testing.T) {
	evt := New(TypeRequestForwarded, workflow.KindTrip, 42, 7, map[string]interface{}{
		"next_role": "transport_manager",
	})

	if evt.ID == "" {
		t.Error("event ID should be generated")
	}
	if evt.CorrelationID == "" {
		t.Error("correlation ID should be generated")
	}
	if evt.RequestID != 42 || evt.ActorID != 7 {
		t.Errorf("request/actor = %d/%d, want 42/7", evt.RequestID, evt.ActorID)
	}
	if evt.GetPayloadString("next_role") != "transport_manager" {
		t.Error("payload string lookup failed")
	}
	if evt.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestNewWithCorrelation(t *testing.T) {
	first := New(TypeRequestCreated, workflow.KindRefueling, 1, 2, nil)
	second := NewWithCorrelation(TypeRequestForwarded, workflow.KindRefueling, 1, 3, nil, first.CorrelationID)

	if second.CorrelationID != first.CorrelationID {
		t.Error("correlation ID should carry over")
	}
	if second.ID == first.ID {
		t.Error("each event must get its own ID")
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		eventType Type
		expected  bool
	}{
		{TypeRequestCreated, true},
		{TypeRequestApproved, true},
		{TypeServiceDue, true},
		{Type("request.cancelled"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		if got := tt.eventType.IsValid(); got != tt.expected {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.eventType, got, tt.expected)
		}
	}
}

func TestGetPayloadInt64(t *testing.T) {
	evt := New(TypeVehicleAssigned, workflow.KindHighCostTrip, 5, 6, map[string]interface{}{
		"vehicle_id": 12,
		"float_id":   float64(33),
	})

	if got := evt.GetPayloadInt64("vehicle_id"); got != 12 {
		t.Errorf("GetPayloadInt64(vehicle_id) = %d, want 12", got)
	}
	if got := evt.GetPayloadInt64("float_id"); got != 33 {
		t.Errorf("GetPayloadInt64(float_id) = %d, want 33", got)
	}
	if got := evt.GetPayloadInt64("missing"); got != 0 {
		t.Errorf("GetPayloadInt64(missing) = %d, want 0", got)
	}
}
