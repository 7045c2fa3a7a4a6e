package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/tms/internal/application/dispatcher"
	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/event"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// AllocatorService owns vehicle allocation outside the approval
// transaction: the deferred dispatch of approved high-cost trips and the
// completion of trips, which releases the vehicle and accrues kilometers.
type AllocatorService interface {
	AssignToApprovedTrip(ctx context.Context, requestID int64, actor *entity.User, vehicleID int64) (*entity.Request, []string, error)
	CompleteTrip(ctx context.Context, kind workflow.Kind, requestID int64, actor *entity.User, kilometersDriven float64) (*entity.Request, []string, error)
	ListAvailableVehicles(ctx context.Context) ([]*entity.Vehicle, error)
}

type allocatorServiceImpl struct {
	requestRepo port.RequestRepository
	vehicleRepo port.VehicleRepository
	auditRepo   port.AuditLogRepository
	txManager   port.TransactionManager
	notifier    NotificationService
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewAllocatorService creates the vehicle allocator
func NewAllocatorService(
	requestRepo port.RequestRepository,
	vehicleRepo port.VehicleRepository,
	auditRepo port.AuditLogRepository,
	txManager port.TransactionManager,
	notifier NotificationService,
	events dispatcher.Dispatcher,
	logger Logger,
) AllocatorService {
	return &allocatorServiceImpl{
		requestRepo: requestRepo,
		vehicleRepo: vehicleRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		events:      events,
		logger:      logger,
	}
}

// AssignToApprovedTrip binds a vehicle to an approved high-cost trip. The
// binding is one-shot: the assigned flag flips atomically inside the
// transaction, so two concurrent dispatches cannot both succeed.
func (s *allocatorServiceImpl) AssignToApprovedTrip(ctx context.Context, requestID int64, actor *entity.User, vehicleID int64) (*entity.Request, []string, error) {
	if actor == nil || actor.Role != workflow.RoleTransportManager {
		return nil, nil, fmt.Errorf("%w: only the transport manager dispatches vehicles", workflow.ErrForbidden)
	}

	var (
		req     *entity.Request
		vehicle *entity.Vehicle
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, workflow.KindHighCostTrip, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: highcost_trip request %d", ErrNotFound, requestID)
		}
		if req.Status != workflow.StateApproved {
			return fmt.Errorf("%w: request %d is %s, only approved trips are dispatched", workflow.ErrValidation, req.ID, req.Status)
		}
		if req.VehicleAssigned {
			return fmt.Errorf("%w: request %d already has a vehicle assigned", workflow.ErrConflict, req.ID)
		}

		// Without an explicit choice, dispatch the vehicle recorded during
		// estimation.
		if vehicleID == 0 {
			if req.EstimatedVehicleID == nil {
				return fmt.Errorf("%w: request %d has no estimated vehicle to dispatch", workflow.ErrPreconditionMissing, req.ID)
			}
			vehicleID = *req.EstimatedVehicleID
		}

		vehicle, err = s.vehicleRepo.GetByID(txCtx, vehicleID)
		if err != nil {
			return fmt.Errorf("load vehicle: %w", err)
		}
		if vehicle == nil {
			return fmt.Errorf("%w: vehicle %d does not exist", workflow.ErrValidation, vehicleID)
		}
		if !vehicle.IsAvailable() {
			return fmt.Errorf("%w: vehicle %s is %s", workflow.ErrResourceUnavailable, vehicle.LicensePlate, vehicle.Status)
		}
		if !vehicle.HasDriver() {
			return fmt.Errorf("%w: vehicle %s has no assigned driver", workflow.ErrPreconditionMissing, vehicle.LicensePlate)
		}

		if err := s.vehicleRepo.Reserve(txCtx, vehicle.ID); err != nil {
			return err
		}
		if err := s.requestRepo.MarkVehicleAssigned(txCtx, req.ID, vehicle.ID); err != nil {
			return err
		}

		entry := &entity.AuditLogEntry{
			Kind:      req.Kind,
			RequestID: req.ID,
			ActorID:   actor.ID,
			Action:    "vehicle_assigned",
			Remarks:   fmt.Sprintf("Vehicle: %s", vehicle.LicensePlate),
			Timestamp: time.Now(),
		}
		return s.auditRepo.Append(txCtx, entry)
	})
	if err != nil {
		return nil, nil, err
	}

	req.VehicleID = &vehicle.ID
	req.VehicleAssigned = true
	vehicle.Status = entity.VehicleInUse

	s.logger.Info("Vehicle dispatched to approved trip",
		"request_id", req.ID, "vehicle_id", vehicle.ID, "license_plate", vehicle.LicensePlate)

	var warnings []string
	if vehicle.DriverID != nil {
		warnings = s.notifier.NotifyVehicleAssigned(ctx, req, *vehicle.DriverID, vehicle)
	}

	if s.events != nil {
		s.events.DispatchAsync(ctx, event.New(event.TypeVehicleAssigned, req.Kind, req.ID, actor.ID, map[string]interface{}{
			"vehicle_id": vehicle.ID,
		}))
	}

	return req, warnings, nil
}

// CompleteTrip marks an approved trip finished, releases its vehicle back
// to the pool, and accrues the driven distance. Crossing the service
// interval parks the vehicle for servicing instead of releasing it.
func (s *allocatorServiceImpl) CompleteTrip(ctx context.Context, kind workflow.Kind, requestID int64, actor *entity.User, kilometersDriven float64) (*entity.Request, []string, error) {
	if actor == nil {
		return nil, nil, fmt.Errorf("%w: actor is required", workflow.ErrValidation)
	}
	if kind != workflow.KindTrip && kind != workflow.KindHighCostTrip {
		return nil, nil, fmt.Errorf("%w: %s requests do not complete trips", workflow.ErrValidation, kind)
	}
	if kilometersDriven < 0 {
		return nil, nil, fmt.Errorf("%w: kilometers driven cannot be negative", workflow.ErrValidation)
	}

	var (
		req        *entity.Request
		vehicle    *entity.Vehicle
		serviceDue bool
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, kind, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: %s request %d", ErrNotFound, kind, requestID)
		}
		if req.Status != workflow.StateApproved {
			return fmt.Errorf("%w: request %d is %s, only approved trips complete", workflow.ErrValidation, req.ID, req.Status)
		}
		if req.VehicleID == nil {
			return fmt.Errorf("%w: request %d has no vehicle bound", workflow.ErrPreconditionMissing, req.ID)
		}
		if req.TripCompleted {
			return fmt.Errorf("%w: request %d is already completed", workflow.ErrConflict, req.ID)
		}

		vehicle, err = s.vehicleRepo.GetByID(txCtx, *req.VehicleID)
		if err != nil {
			return fmt.Errorf("load vehicle: %w", err)
		}
		if vehicle == nil {
			return fmt.Errorf("%w: vehicle %d", ErrNotFound, *req.VehicleID)
		}
		if vehicle.DriverID == nil || *vehicle.DriverID != actor.ID {
			return fmt.Errorf("%w: only the assigned driver completes a trip", workflow.ErrUnauthorized)
		}

		if err := s.requestRepo.MarkTripCompleted(txCtx, kind, req.ID); err != nil {
			return err
		}
		if kilometersDriven > 0 {
			if err := s.vehicleRepo.AddKilometers(txCtx, vehicle.ID, kilometersDriven); err != nil {
				return err
			}
			vehicle.TotalKilometers += kilometersDriven
		}

		serviceDue = vehicle.KilometersSinceService() >= serviceDueKilometers
		nextStatus := entity.VehicleAvailable
		if serviceDue {
			nextStatus = entity.VehicleService
		}
		if err := s.vehicleRepo.UpdateStatus(txCtx, vehicle.ID, nextStatus); err != nil {
			return err
		}
		vehicle.Status = nextStatus

		entry := &entity.AuditLogEntry{
			Kind:      req.Kind,
			RequestID: req.ID,
			ActorID:   actor.ID,
			Action:    "trip_completed",
			Remarks:   fmt.Sprintf("Kilometers driven: %.1f", kilometersDriven),
			Timestamp: time.Now(),
		}
		return s.auditRepo.Append(txCtx, entry)
	})
	if err != nil {
		return nil, nil, err
	}

	req.TripCompleted = true

	s.logger.Info("Trip completed",
		"kind", kind, "request_id", req.ID,
		"vehicle_id", vehicle.ID, "kilometers_driven", kilometersDriven,
		"service_due", serviceDue)

	var warnings []string
	if serviceDue {
		warnings = s.notifier.NotifyServiceDue(ctx, vehicle)
		if s.events != nil {
			s.events.DispatchAsync(ctx, event.New(event.TypeServiceDue, kind, req.ID, actor.ID, map[string]interface{}{
				"vehicle_id":       vehicle.ID,
				"total_kilometers": vehicle.TotalKilometers,
			}))
		}
	}

	if s.events != nil {
		s.events.DispatchAsync(ctx, event.New(event.TypeTripCompleted, kind, req.ID, actor.ID, map[string]interface{}{
			"vehicle_id": vehicle.ID,
		}))
	}

	return req, warnings, nil
}

// ListAvailableVehicles returns vehicles that can currently be reserved
func (s *allocatorServiceImpl) ListAvailableVehicles(ctx context.Context) ([]*entity.Vehicle, error) {
	return s.vehicleRepo.ListAvailable(ctx)
}
