package entity

import "time"

// MonthlyKilometerLog records the distance a vehicle drove in one month.
// Unique per (vehicle, month); appended by the vehicle management service
// and accumulated into the vehicle's lifetime mileage.
type MonthlyKilometerLog struct {
	ID               int64     `json:"id"`
	VehicleID        int64     `json:"vehicle_id"`
	Month            string    `json:"month"`
	KilometersDriven float64   `json:"kilometers_driven"`
	RecordedByID     int64     `json:"recorded_by"`
	CreatedAt        time.Time `json:"created_at"`
}
