package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fleetops/tms/internal/application/dispatcher"
	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/event"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// serviceDueKilometers is the distance after which a vehicle must be
// serviced before it keeps operating.
const serviceDueKilometers = 5000

// TripInput carries the fields for an ordinary or high-cost trip request
type TripInput struct {
	Requester   *entity.User
	Destination string
	Reason      string
	StartDay    time.Time
	ReturnDay   time.Time
}

// EstimateInput carries the transport manager's cost estimation
type EstimateInput struct {
	Kind               workflow.Kind
	RequestID          int64
	Actor              *entity.User
	DistanceKm         float64
	FuelPricePerLiter  float64
	EstimatedVehicleID *int64
}

// MaintenanceDocsInput carries the uploaded maintenance documents
type MaintenanceDocsInput struct {
	RequestID      int64
	Actor          *entity.User
	LetterName     string
	LetterContent  []byte
	ReceiptName    string
	ReceiptContent []byte
	TotalCost      float64
}

// RequestService handles request intake and the stage-local data each kind
// needs before it can advance: cost estimation for refueling and high-cost
// trips, document submission for maintenance.
type RequestService interface {
	CreateTrip(ctx context.Context, input TripInput) (*entity.Request, []string, error)
	CreateHighCostTrip(ctx context.Context, input TripInput) (*entity.Request, []string, error)
	CreateMaintenance(ctx context.Context, requester *entity.User, reason string) (*entity.Request, []string, error)
	CreateRefueling(ctx context.Context, requester *entity.User, destination string, startDay time.Time) (*entity.Request, []string, error)

	Estimate(ctx context.Context, input EstimateInput) (*entity.Request, error)
	SubmitMaintenanceDocs(ctx context.Context, input MaintenanceDocsInput) (*entity.Request, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	vehicleRepo port.VehicleRepository
	auditRepo   port.AuditLogRepository
	txManager   port.TransactionManager
	storage     port.DocumentStorage
	notifier    NotificationService
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewRequestService creates the request intake service
func NewRequestService(
	requestRepo port.RequestRepository,
	vehicleRepo port.VehicleRepository,
	auditRepo port.AuditLogRepository,
	txManager port.TransactionManager,
	storage port.DocumentStorage,
	notifier NotificationService,
	events dispatcher.Dispatcher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo: requestRepo,
		vehicleRepo: vehicleRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		storage:     storage,
		notifier:    notifier,
		events:      events,
		logger:      logger,
	}
}

// CreateTrip submits an ordinary trip request, addressed to the requester's
// department manager.
func (s *requestServiceImpl) CreateTrip(ctx context.Context, input TripInput) (*entity.Request, []string, error) {
	if err := validateTripInput(input); err != nil {
		return nil, nil, err
	}
	if input.Requester.DepartmentID == nil {
		return nil, nil, fmt.Errorf("%w: requester has no department", workflow.ErrValidation)
	}

	req := newRequest(workflow.KindTrip, input.Requester.ID)
	req.Destination = input.Destination
	req.Reason = input.Reason
	req.StartDay = &input.StartDay
	req.ReturnDay = &input.ReturnDay

	return s.submit(ctx, req, input.Requester)
}

// CreateHighCostTrip submits a high-cost trip request, addressed directly
// to the CEO.
func (s *requestServiceImpl) CreateHighCostTrip(ctx context.Context, input TripInput) (*entity.Request, []string, error) {
	if err := validateTripInput(input); err != nil {
		return nil, nil, err
	}

	req := newRequest(workflow.KindHighCostTrip, input.Requester.ID)
	req.Destination = input.Destination
	req.Reason = input.Reason
	req.StartDay = &input.StartDay
	req.ReturnDay = &input.ReturnDay

	return s.submit(ctx, req, input.Requester)
}

// CreateMaintenance submits a maintenance request for the driver's own
// vehicle. Only drivers with a bound vehicle can file one.
func (s *requestServiceImpl) CreateMaintenance(ctx context.Context, requester *entity.User, reason string) (*entity.Request, []string, error) {
	if requester == nil {
		return nil, nil, fmt.Errorf("%w: requester is required", workflow.ErrValidation)
	}
	if requester.Role != workflow.RoleDriver {
		return nil, nil, fmt.Errorf("%w: only drivers can file maintenance requests", workflow.ErrForbidden)
	}
	if reason == "" {
		return nil, nil, fmt.Errorf("%w: reason is required", workflow.ErrValidation)
	}

	vehicle, err := s.driverVehicle(ctx, requester)
	if err != nil {
		return nil, nil, err
	}

	req := newRequest(workflow.KindMaintenance, requester.ID)
	req.Reason = reason
	req.RequestersCarID = &vehicle.ID

	return s.submit(ctx, req, requester)
}

// CreateRefueling submits a refueling request for the driver's own vehicle.
func (s *requestServiceImpl) CreateRefueling(ctx context.Context, requester *entity.User, destination string, startDay time.Time) (*entity.Request, []string, error) {
	if requester == nil {
		return nil, nil, fmt.Errorf("%w: requester is required", workflow.ErrValidation)
	}
	if requester.Role != workflow.RoleDriver {
		return nil, nil, fmt.Errorf("%w: only drivers can file refueling requests", workflow.ErrForbidden)
	}
	if destination == "" {
		return nil, nil, fmt.Errorf("%w: destination is required", workflow.ErrValidation)
	}

	vehicle, err := s.driverVehicle(ctx, requester)
	if err != nil {
		return nil, nil, err
	}

	req := newRequest(workflow.KindRefueling, requester.ID)
	req.Destination = destination
	req.StartDay = &startDay
	req.RequestersCarID = &vehicle.ID

	return s.submit(ctx, req, requester)
}

// submit persists the request together with its intake audit entry, then
// notifies the first approver best-effort.
func (s *requestServiceImpl) submit(ctx context.Context, req *entity.Request, requester *entity.User) (*entity.Request, []string, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create %s request: %w", req.Kind, err)
		}
		entry := &entity.AuditLogEntry{
			Kind:      req.Kind,
			RequestID: req.ID,
			ActorID:   requester.ID,
			Action:    "submitted",
			Timestamp: time.Now(),
		}
		if err := s.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Request submitted",
		"kind", req.Kind, "request_id", req.ID,
		"requester_id", requester.ID, "approver_role", req.ApproverRole)

	warnings := s.notifier.NotifyNewRequest(ctx, req, requester)

	if s.events != nil {
		s.events.DispatchAsync(ctx, event.New(event.TypeRequestCreated, req.Kind, req.ID, requester.ID, map[string]interface{}{
			"approver_role": req.ApproverRole.String(),
		}))
	}

	return req, warnings, nil
}

// Estimate records the transport manager's cost estimation on a refueling
// or high-cost trip request. Fuel need derives from the vehicle's fuel
// efficiency; refueling covers the round trip.
func (s *requestServiceImpl) Estimate(ctx context.Context, input EstimateInput) (*entity.Request, error) {
	if input.Actor == nil || input.Actor.Role != workflow.RoleTransportManager {
		return nil, fmt.Errorf("%w: only the transport manager records estimations", workflow.ErrForbidden)
	}
	if input.Kind != workflow.KindRefueling && input.Kind != workflow.KindHighCostTrip {
		return nil, fmt.Errorf("%w: %s requests are not estimated", workflow.ErrValidation, input.Kind)
	}
	if input.DistanceKm <= 0 || input.FuelPricePerLiter <= 0 {
		return nil, fmt.Errorf("%w: distance and fuel price must be positive", workflow.ErrValidation)
	}

	req, err := s.requestRepo.GetByID(ctx, input.Kind, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s request %d", ErrNotFound, input.Kind, input.RequestID)
	}
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", workflow.ErrAlreadyTerminal, req.ID, req.Status)
	}
	if req.ApproverRole != workflow.RoleTransportManager {
		return nil, fmt.Errorf("%w: request %d is not at the transport manager stage", workflow.ErrUnauthorized, req.ID)
	}

	var vehicleID int64
	switch input.Kind {
	case workflow.KindRefueling:
		if req.RequestersCarID == nil {
			return nil, fmt.Errorf("%w: refueling request %d has no vehicle", workflow.ErrValidation, req.ID)
		}
		vehicleID = *req.RequestersCarID
	case workflow.KindHighCostTrip:
		if input.EstimatedVehicleID == nil {
			return nil, fmt.Errorf("%w: estimated vehicle is required", workflow.ErrValidation)
		}
		vehicleID = *input.EstimatedVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %d does not exist", workflow.ErrValidation, vehicleID)
	}
	if vehicle.FuelEfficiency <= 0 {
		return nil, fmt.Errorf("%w: vehicle %s has no fuel efficiency recorded", workflow.ErrValidation, vehicle.LicensePlate)
	}

	fuelNeeded := input.DistanceKm / vehicle.FuelEfficiency
	totalCost := fuelNeeded * input.FuelPricePerLiter
	if input.Kind == workflow.KindRefueling {
		// round trip
		totalCost *= 2
	}

	if err := s.requestRepo.SetEstimate(ctx, input.Kind, req.ID, input.DistanceKm, input.FuelPricePerLiter, fuelNeeded, totalCost, input.EstimatedVehicleID); err != nil {
		return nil, fmt.Errorf("persist estimation: %w", err)
	}

	req.EstimatedDistanceKm = &input.DistanceKm
	req.FuelPricePerLiter = &input.FuelPricePerLiter
	req.FuelNeededLiters = &fuelNeeded
	req.TotalCost = &totalCost
	req.EstimatedVehicleID = input.EstimatedVehicleID

	s.logger.Info("Estimation recorded",
		"kind", req.Kind, "request_id", req.ID,
		"distance_km", input.DistanceKm, "total_cost", totalCost)

	return req, nil
}

// SubmitMaintenanceDocs stores the maintenance letter and receipt and
// records the total cost on the request. Only the general system stage
// submits documents, and only before the request advances past it.
func (s *requestServiceImpl) SubmitMaintenanceDocs(ctx context.Context, input MaintenanceDocsInput) (*entity.Request, error) {
	if input.Actor == nil || input.Actor.Role != workflow.RoleGeneralSystem {
		return nil, fmt.Errorf("%w: only the general system submits maintenance documents", workflow.ErrForbidden)
	}
	if len(input.LetterContent) == 0 || len(input.ReceiptContent) == 0 {
		return nil, fmt.Errorf("%w: letter and receipt files are required", workflow.ErrValidation)
	}
	if input.TotalCost <= 0 {
		return nil, fmt.Errorf("%w: total cost must be positive", workflow.ErrValidation)
	}

	req, err := s.requestRepo.GetByID(ctx, workflow.KindMaintenance, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: maintenance request %d", ErrNotFound, input.RequestID)
	}
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %d is %s", workflow.ErrAlreadyTerminal, req.ID, req.Status)
	}
	if req.ApproverRole != workflow.RoleGeneralSystem {
		return nil, fmt.Errorf("%w: request %d is not at the general system stage", workflow.ErrUnauthorized, req.ID)
	}

	letterPath, err := s.storage.Save(maintenanceDocPath(req.ID, "letter", input.LetterName), input.LetterContent)
	if err != nil {
		return nil, fmt.Errorf("store maintenance letter: %w", err)
	}
	receiptPath, err := s.storage.Save(maintenanceDocPath(req.ID, "receipt", input.ReceiptName), input.ReceiptContent)
	if err != nil {
		return nil, fmt.Errorf("store maintenance receipt: %w", err)
	}

	if err := s.requestRepo.SetMaintenanceDocs(ctx, req.ID, letterPath, receiptPath, input.TotalCost); err != nil {
		return nil, fmt.Errorf("persist maintenance documents: %w", err)
	}

	req.MaintenanceLetterPath = letterPath
	req.MaintenanceReceiptPath = receiptPath
	req.MaintenanceTotalCost = &input.TotalCost

	s.logger.Info("Maintenance documents submitted",
		"request_id", req.ID, "total_cost", input.TotalCost)

	return req, nil
}

func (s *requestServiceImpl) driverVehicle(ctx context.Context, driver *entity.User) (*entity.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("load driver vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: no vehicle is assigned to driver %d", workflow.ErrPreconditionMissing, driver.ID)
	}
	return vehicle, nil
}

func newRequest(kind workflow.Kind, requesterID int64) *entity.Request {
	firstRole, _ := workflow.FirstRole(kind)
	now := time.Now()
	return &entity.Request{
		Kind:          kind,
		RequesterID:   requesterID,
		Status:        workflow.StatePending,
		ApproverRole:  firstRole,
		HierarchyStep: 0,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateTripInput(input TripInput) error {
	if input.Requester == nil {
		return fmt.Errorf("%w: requester is required", workflow.ErrValidation)
	}
	if input.Destination == "" {
		return fmt.Errorf("%w: destination is required", workflow.ErrValidation)
	}
	if input.Reason == "" {
		return fmt.Errorf("%w: reason is required", workflow.ErrValidation)
	}
	if input.StartDay.IsZero() || input.ReturnDay.IsZero() {
		return fmt.Errorf("%w: start and return days are required", workflow.ErrValidation)
	}
	if input.ReturnDay.Before(input.StartDay) {
		return fmt.Errorf("%w: return day precedes start day", workflow.ErrValidation)
	}
	return nil
}

func maintenanceDocPath(requestID int64, docType, originalName string) string {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join("maintenance", fmt.Sprintf("%d_%s%s", requestID, docType, ext))
}
