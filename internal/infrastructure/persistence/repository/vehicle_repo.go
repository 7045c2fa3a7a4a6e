package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/fleetops/tms/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const vehicleColumns = `
	id, license_plate, model, capacity, source, rental_company, status,
	fuel_type, fuel_efficiency, total_kilometers, last_service_kilometers,
	driver_id, created_at, updated_at`

// VehicleRepository implements port.VehicleRepository
type VehicleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *sql.DB, logger *zap.Logger) port.VehicleRepository {
	return &VehicleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new vehicle
func (r *VehicleRepository) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			license_plate, model, capacity, source, rental_company, status,
			fuel_type, fuel_efficiency, total_kilometers, last_service_kilometers,
			driver_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		vehicle.LicensePlate,
		vehicle.Model,
		vehicle.Capacity,
		vehicle.Source,
		vehicle.RentalCompany,
		vehicle.Status,
		vehicle.FuelType,
		vehicle.FuelEfficiency,
		vehicle.TotalKilometers,
		vehicle.LastServiceKilometers,
		vehicle.DriverID,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vehicle", zap.String("license_plate", vehicle.LicensePlate), zap.Error(err))
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	vehicle.ID = id
	return nil
}

// GetByID retrieves one vehicle
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	query := `SELECT` + vehicleColumns + ` FROM vehicles WHERE id = ?`

	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	vehicle, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vehicle", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return vehicle, nil
}

// GetByDriverID retrieves the vehicle bound to a driver, if any
func (r *VehicleRepository) GetByDriverID(ctx context.Context, driverID int64) (*entity.Vehicle, error) {
	query := `SELECT` + vehicleColumns + ` FROM vehicles WHERE driver_id = ?`

	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, driverID)
	vehicle, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vehicle by driver", zap.Int64("driver_id", driverID), zap.Error(err))
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return vehicle, nil
}

// ListAvailable retrieves all vehicles in the available state
func (r *VehicleRepository) ListAvailable(ctx context.Context) ([]*entity.Vehicle, error) {
	query := `SELECT` + vehicleColumns + ` FROM vehicles WHERE status = ? ORDER BY license_plate`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, entity.VehicleAvailable)
	if err != nil {
		r.logger.Error("Failed to list available vehicles", zap.Error(err))
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*entity.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// Reserve moves a vehicle from available to in_use. The guarded update
// keeps the allocation exclusive: when two reservations race, the loser
// matches zero rows and gets workflow.ErrResourceUnavailable.
func (r *VehicleRepository) Reserve(ctx context.Context, id int64) error {
	query := `
		UPDATE vehicles
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.VehicleInUse, time.Now(), id, entity.VehicleAvailable,
	)
	if err != nil {
		r.logger.Error("Failed to reserve vehicle", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to reserve vehicle: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: vehicle %d is not available", workflow.ErrResourceUnavailable, id)
	}
	return nil
}

// Release moves a vehicle from in_use back to available
func (r *VehicleRepository) Release(ctx context.Context, id int64) error {
	query := `
		UPDATE vehicles
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.VehicleAvailable, time.Now(), id, entity.VehicleInUse,
	)
	if err != nil {
		r.logger.Error("Failed to release vehicle", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to release vehicle: %w", err)
	}
	return nil
}

// UpdateStatus sets the vehicle status unconditionally
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE vehicles SET status = ?, updated_at = ? WHERE id = ?`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update vehicle status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	return nil
}

// AssignDriver binds a driver to a vehicle
func (r *VehicleRepository) AssignDriver(ctx context.Context, vehicleID, driverID int64) error {
	query := `UPDATE vehicles SET driver_id = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, driverID, time.Now(), vehicleID)
	if err != nil {
		r.logger.Error("Failed to assign driver", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return fmt.Errorf("failed to assign driver: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: vehicle %d does not exist", workflow.ErrValidation, vehicleID)
	}
	return nil
}

// UnassignDriver removes the driver binding
func (r *VehicleRepository) UnassignDriver(ctx context.Context, vehicleID int64) error {
	query := `UPDATE vehicles SET driver_id = NULL, updated_at = ? WHERE id = ?`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, time.Now(), vehicleID)
	if err != nil {
		r.logger.Error("Failed to unassign driver", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return fmt.Errorf("failed to unassign driver: %w", err)
	}
	return nil
}

// AddKilometers accrues driven distance onto the lifetime total
func (r *VehicleRepository) AddKilometers(ctx context.Context, id int64, kilometers float64) error {
	query := `
		UPDATE vehicles
		SET total_kilometers = total_kilometers + ?, updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, kilometers, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to add kilometers", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to add kilometers: %w", err)
	}
	return nil
}

// SetLastServiceKilometers resets the service counter
func (r *VehicleRepository) SetLastServiceKilometers(ctx context.Context, id int64, kilometers float64) error {
	query := `UPDATE vehicles SET last_service_kilometers = ?, updated_at = ? WHERE id = ?`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, kilometers, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to set last service kilometers", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set last service kilometers: %w", err)
	}
	return nil
}

func scanVehicle(row rowScanner) (*entity.Vehicle, error) {
	var vehicle entity.Vehicle
	var rentalCompany sql.NullString

	err := row.Scan(
		&vehicle.ID,
		&vehicle.LicensePlate,
		&vehicle.Model,
		&vehicle.Capacity,
		&vehicle.Source,
		&rentalCompany,
		&vehicle.Status,
		&vehicle.FuelType,
		&vehicle.FuelEfficiency,
		&vehicle.TotalKilometers,
		&vehicle.LastServiceKilometers,
		&vehicle.DriverID,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	vehicle.RentalCompany = rentalCompany.String
	return &vehicle, nil
}

// Verify interface compliance
var _ port.VehicleRepository = (*VehicleRepository)(nil)
