package entity

import (
	"time"

	"github.com/fleetops/tms/internal/domain/workflow"
)

// Request represents a resource request moving through an approval chain.
// All four kinds share one workflow shape; they differ only in hierarchy
// table and which payload fields are populated.
type Request struct {
	ID            int64          `json:"id"`
	Kind          workflow.Kind  `json:"kind"`
	RequesterID   int64          `json:"requester_id"`
	Status        workflow.State `json:"status"`
	ApproverRole  workflow.Role  `json:"current_approver_role"`
	HierarchyStep int            `json:"hierarchy_step"`
	Version       int64          `json:"version"`

	Destination      string     `json:"destination,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	StartDay         *time.Time `json:"start_day,omitempty"`
	ReturnDay        *time.Time `json:"return_day,omitempty"`
	RejectionMessage string     `json:"rejection_message,omitempty"`

	// VehicleID is the vehicle bound on approval (trip) or on deferred
	// dispatch (high-cost trip). RequestersCarID is the vehicle a
	// maintenance or refueling request is about.
	VehicleID       *int64 `json:"vehicle_id,omitempty"`
	RequestersCarID *int64 `json:"requesters_car_id,omitempty"`

	// High-cost dispatch fields: the transport manager records an estimated
	// vehicle during estimation; VehicleAssigned guards the one-shot
	// post-approval binding.
	EstimatedVehicleID *int64 `json:"estimated_vehicle_id,omitempty"`
	VehicleAssigned    bool   `json:"vehicle_assigned"`

	// Estimation fields populated by the transport manager stage.
	EstimatedDistanceKm *float64 `json:"estimated_distance_km,omitempty"`
	FuelPricePerLiter   *float64 `json:"fuel_price_per_liter,omitempty"`
	FuelNeededLiters    *float64 `json:"fuel_needed_liters,omitempty"`
	TotalCost           *float64 `json:"total_cost,omitempty"`

	// Maintenance document fields populated by the general system stage.
	MaintenanceLetterPath  string   `json:"maintenance_letter_path,omitempty"`
	MaintenanceReceiptPath string   `json:"maintenance_receipt_path,omitempty"`
	MaintenanceTotalCost   *float64 `json:"maintenance_total_cost,omitempty"`

	TripCompleted bool      `json:"trip_completed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsTerminal returns true once the request has been approved or rejected.
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// HasEstimate reports whether the transport manager stage recorded the
// distance and fuel price required before forwarding.
func (r *Request) HasEstimate() bool {
	return r.EstimatedDistanceKm != nil && r.FuelPricePerLiter != nil
}

// HasMaintenanceDocs reports whether the general system stage submitted the
// letter, receipt, and total cost required before forwarding.
func (r *Request) HasMaintenanceDocs() bool {
	return r.MaintenanceLetterPath != "" && r.MaintenanceReceiptPath != "" && r.MaintenanceTotalCost != nil
}
