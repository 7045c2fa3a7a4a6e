package entity

import "time"

// Vehicle status constants
const (
	VehicleAvailable   = "available"
	VehicleInUse       = "in_use"
	VehicleService     = "service"
	VehicleMaintenance = "maintenance"
)

// Vehicle source constants
const (
	SourceOrganization = "organization"
	SourceRented       = "rented"
)

// Fuel type constants
const (
	FuelNaphtha = "naphtha"
	FuelBenzene = "benzene"
)

// Vehicle is the shared physical resource reserved for approved requests.
// Status and driver binding are mutated only through the allocator and the
// vehicle management service, never directly by request transitions.
type Vehicle struct {
	ID                    int64     `json:"id"`
	LicensePlate          string    `json:"license_plate"`
	Model                 string    `json:"model"`
	Capacity              int       `json:"capacity"`
	Source                string    `json:"source"`
	RentalCompany         string    `json:"rental_company,omitempty"`
	Status                string    `json:"status"`
	FuelType              string    `json:"fuel_type"`
	FuelEfficiency        float64   `json:"fuel_efficiency"`
	TotalKilometers       float64   `json:"total_kilometers"`
	LastServiceKilometers float64   `json:"last_service_kilometers"`
	DriverID              *int64    `json:"driver_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// IsAvailable reports whether the vehicle can be reserved.
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleAvailable
}

// HasDriver reports whether a driver is bound to the vehicle.
func (v *Vehicle) HasDriver() bool {
	return v.DriverID != nil
}

// KilometersSinceService returns the distance accumulated since the last
// recorded service.
func (v *Vehicle) KilometersSinceService() float64 {
	return v.TotalKilometers - v.LastServiceKilometers
}
