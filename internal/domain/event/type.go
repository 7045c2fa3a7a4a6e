package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated   Type = "request.created"
	TypeRequestForwarded Type = "request.forwarded"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeVehicleAssigned  Type = "vehicle.assigned"
	TypeTripCompleted    Type = "trip.completed"
	TypeServiceDue       Type = "vehicle.service_due"
)

// AllTypes returns every event type the engine emits.
func AllTypes() []Type {
	return []Type{
		TypeRequestCreated,
		TypeRequestForwarded,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeVehicleAssigned,
		TypeTripCompleted,
		TypeServiceDue,
	}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestForwarded,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeVehicleAssigned,
		TypeTripCompleted,
		TypeServiceDue:
		return true
	default:
		return false
	}
}
