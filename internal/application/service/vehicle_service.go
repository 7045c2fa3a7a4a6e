package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/fleetops/tms/pkg/utils"
)

// VehicleInput carries the fields for registering a vehicle
type VehicleInput struct {
	LicensePlate   string
	Model          string
	Capacity       int
	Source         string
	RentalCompany  string
	FuelType       string
	FuelEfficiency float64
}

// KilometerLogInput carries one monthly mileage record
type KilometerLogInput struct {
	VehicleID        int64
	Month            string
	KilometersDriven float64
	RecordedBy       *entity.User
}

// VehicleService manages the vehicle fleet: registration, driver binding,
// monthly kilometer logs, and the service lifecycle. Fleet mutations are
// restricted to the transport manager.
type VehicleService interface {
	Register(ctx context.Context, actor *entity.User, input VehicleInput) (*entity.Vehicle, error)
	Get(ctx context.Context, id int64) (*entity.Vehicle, error)
	AssignDriver(ctx context.Context, actor *entity.User, vehicleID, driverID int64) error
	UnassignDriver(ctx context.Context, actor *entity.User, vehicleID int64) error
	RecordMonthlyKilometers(ctx context.Context, input KilometerLogInput) (*entity.MonthlyKilometerLog, []string, error)
	MarkServiced(ctx context.Context, actor *entity.User, vehicleID int64) error
	ListVehicleLogs(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error)
}

type vehicleServiceImpl struct {
	vehicleRepo   port.VehicleRepository
	kilometerRepo port.KilometerLogRepository
	directory     port.ActorDirectory
	txManager     port.TransactionManager
	notifier      NotificationService
	logger        Logger
}

// NewVehicleService creates the vehicle management service
func NewVehicleService(
	vehicleRepo port.VehicleRepository,
	kilometerRepo port.KilometerLogRepository,
	directory port.ActorDirectory,
	txManager port.TransactionManager,
	notifier NotificationService,
	logger Logger,
) VehicleService {
	return &vehicleServiceImpl{
		vehicleRepo:   vehicleRepo,
		kilometerRepo: kilometerRepo,
		directory:     directory,
		txManager:     txManager,
		notifier:      notifier,
		logger:        logger,
	}
}

// Register adds a vehicle to the fleet in the available state
func (s *vehicleServiceImpl) Register(ctx context.Context, actor *entity.User, input VehicleInput) (*entity.Vehicle, error) {
	if err := requireTransportManager(actor); err != nil {
		return nil, err
	}
	if input.Model == "" {
		return nil, fmt.Errorf("%w: model is required", workflow.ErrValidation)
	}
	if err := utils.ValidateLicensePlate(input.LicensePlate); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
	}
	if input.Source != entity.SourceOrganization && input.Source != entity.SourceRented {
		return nil, fmt.Errorf("%w: unknown vehicle source %q", workflow.ErrValidation, input.Source)
	}
	if input.Source == entity.SourceRented && input.RentalCompany == "" {
		return nil, fmt.Errorf("%w: rental company is required for rented vehicles", workflow.ErrValidation)
	}
	if input.FuelEfficiency <= 0 {
		return nil, fmt.Errorf("%w: fuel efficiency must be positive", workflow.ErrValidation)
	}

	now := time.Now()
	vehicle := &entity.Vehicle{
		LicensePlate:   input.LicensePlate,
		Model:          input.Model,
		Capacity:       input.Capacity,
		Source:         input.Source,
		RentalCompany:  input.RentalCompany,
		Status:         entity.VehicleAvailable,
		FuelType:       input.FuelType,
		FuelEfficiency: input.FuelEfficiency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("register vehicle: %w", err)
	}

	s.logger.Info("Vehicle registered",
		"vehicle_id", vehicle.ID, "license_plate", vehicle.LicensePlate, "source", vehicle.Source)

	return vehicle, nil
}

// Get loads one vehicle
func (s *vehicleServiceImpl) Get(ctx context.Context, id int64) (*entity.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %d", ErrNotFound, id)
	}
	return vehicle, nil
}

// AssignDriver binds a driver to a vehicle. A driver holds at most one
// vehicle at a time.
func (s *vehicleServiceImpl) AssignDriver(ctx context.Context, actor *entity.User, vehicleID, driverID int64) error {
	if err := requireTransportManager(actor); err != nil {
		return err
	}

	driver, err := s.directory.GetByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("load driver: %w", err)
	}
	if driver == nil || driver.Role != workflow.RoleDriver {
		return fmt.Errorf("%w: user %d is not a driver", workflow.ErrValidation, driverID)
	}
	if !driver.IsActive {
		return fmt.Errorf("%w: driver %d is inactive", workflow.ErrValidation, driverID)
	}

	existing, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("check driver binding: %w", err)
	}
	if existing != nil && existing.ID != vehicleID {
		return fmt.Errorf("%w: driver %d already drives vehicle %s", workflow.ErrConflict, driverID, existing.LicensePlate)
	}

	if err := s.vehicleRepo.AssignDriver(ctx, vehicleID, driverID); err != nil {
		return err
	}

	s.logger.Info("Driver assigned", "vehicle_id", vehicleID, "driver_id", driverID)
	return nil
}

// UnassignDriver removes the driver binding from a vehicle
func (s *vehicleServiceImpl) UnassignDriver(ctx context.Context, actor *entity.User, vehicleID int64) error {
	if err := requireTransportManager(actor); err != nil {
		return err
	}
	if err := s.vehicleRepo.UnassignDriver(ctx, vehicleID); err != nil {
		return err
	}
	s.logger.Info("Driver unassigned", "vehicle_id", vehicleID)
	return nil
}

// RecordMonthlyKilometers appends one monthly mileage record and folds the
// distance into the vehicle's lifetime total. Crossing the service interval
// raises a service-due notification for the transport managers.
func (s *vehicleServiceImpl) RecordMonthlyKilometers(ctx context.Context, input KilometerLogInput) (*entity.MonthlyKilometerLog, []string, error) {
	if input.RecordedBy == nil {
		return nil, nil, fmt.Errorf("%w: recorder is required", workflow.ErrValidation)
	}
	if input.RecordedBy.Role != workflow.RoleTransportManager && input.RecordedBy.Role != workflow.RoleDriver {
		return nil, nil, fmt.Errorf("%w: only drivers and the transport manager record mileage", workflow.ErrForbidden)
	}
	if err := utils.ValidateMonth(input.Month); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
	}
	if input.KilometersDriven < 0 {
		return nil, nil, fmt.Errorf("%w: kilometers driven cannot be negative", workflow.ErrValidation)
	}

	var (
		vehicle    *entity.Vehicle
		log        *entity.MonthlyKilometerLog
		serviceDue bool
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		vehicle, err = s.vehicleRepo.GetByID(txCtx, input.VehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return fmt.Errorf("%w: vehicle %d", ErrNotFound, input.VehicleID)
		}

		log = &entity.MonthlyKilometerLog{
			VehicleID:        input.VehicleID,
			Month:            input.Month,
			KilometersDriven: input.KilometersDriven,
			RecordedByID:     input.RecordedBy.ID,
			CreatedAt:        time.Now(),
		}
		if err := s.kilometerRepo.Create(txCtx, log); err != nil {
			return fmt.Errorf("record mileage: %w", err)
		}

		if input.KilometersDriven > 0 {
			if err := s.vehicleRepo.AddKilometers(txCtx, vehicle.ID, input.KilometersDriven); err != nil {
				return err
			}
			vehicle.TotalKilometers += input.KilometersDriven
		}

		serviceDue = vehicle.KilometersSinceService() >= serviceDueKilometers
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Monthly mileage recorded",
		"vehicle_id", vehicle.ID, "month", input.Month,
		"kilometers", input.KilometersDriven, "service_due", serviceDue)

	var warnings []string
	if serviceDue {
		warnings = s.notifier.NotifyServiceDue(ctx, vehicle)
	}

	return log, warnings, nil
}

// MarkServiced records a completed service: the service counter resets to
// the current mileage and the vehicle returns to the pool.
func (s *vehicleServiceImpl) MarkServiced(ctx context.Context, actor *entity.User, vehicleID int64) error {
	if err := requireTransportManager(actor); err != nil {
		return err
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicleRepo.GetByID(txCtx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return fmt.Errorf("%w: vehicle %d", ErrNotFound, vehicleID)
		}
		if vehicle.Status == entity.VehicleInUse {
			return fmt.Errorf("%w: vehicle %s is on a trip", workflow.ErrResourceUnavailable, vehicle.LicensePlate)
		}

		if err := s.vehicleRepo.SetLastServiceKilometers(txCtx, vehicleID, vehicle.TotalKilometers); err != nil {
			return err
		}
		if err := s.vehicleRepo.UpdateStatus(txCtx, vehicleID, entity.VehicleAvailable); err != nil {
			return err
		}

		s.logger.Info("Vehicle serviced",
			"vehicle_id", vehicleID, "at_kilometers", vehicle.TotalKilometers)
		return nil
	})
}

// ListVehicleLogs returns a vehicle's monthly mileage records
func (s *vehicleServiceImpl) ListVehicleLogs(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error) {
	return s.kilometerRepo.ListByVehicle(ctx, vehicleID)
}

func requireTransportManager(actor *entity.User) error {
	if actor == nil {
		return fmt.Errorf("%w: actor is required", workflow.ErrValidation)
	}
	if actor.Role != workflow.RoleTransportManager && actor.Role != workflow.RoleSystemAdmin {
		return fmt.Errorf("%w: %s cannot manage the fleet", workflow.ErrForbidden, actor.Role)
	}
	return nil
}
