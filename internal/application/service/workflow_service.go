package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetops/tms/internal/application/dispatcher"
	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/event"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrNotFound is returned when the target record does not exist
var ErrNotFound = errors.New("record not found")

// ActionInput carries one approver action against one request
type ActionInput struct {
	Kind             workflow.Kind
	RequestID        int64
	Actor            *entity.User
	Action           workflow.Trigger
	RejectionMessage string
	VehicleID        *int64
}

// TransitionResult is the outcome of a committed transition. Warnings carry
// notification failures; they never indicate a failed transition.
type TransitionResult struct {
	Request  *entity.Request
	Warnings []string
}

// TransitionNotifier builds and persists the notifications owed for a
// committed transition. It is strictly best-effort: every failure comes
// back as a warning string, never as an error.
type TransitionNotifier interface {
	NotifyTransition(ctx context.Context, req *entity.Request, actor *entity.User, action workflow.Trigger, vehicle *entity.Vehicle) []string
}

// WorkflowService is the single entry point for approval actions. Act
// executes exactly one transition per call: load, validate, transition,
// persist request state plus audit entry in one transaction, then emit
// notifications after commit.
type WorkflowService interface {
	Act(ctx context.Context, input ActionInput) (*TransitionResult, error)
	GetRequest(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error)
	ListForActor(ctx context.Context, kind workflow.Kind, actor *entity.User) ([]*entity.Request, error)
	AuditTrail(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error)
}

type workflowServiceImpl struct {
	requestRepo port.RequestRepository
	vehicleRepo port.VehicleRepository
	auditRepo   port.AuditLogRepository
	directory   port.ActorDirectory
	txManager   port.TransactionManager
	notifier    TransitionNotifier
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewWorkflowService creates the workflow facade
func NewWorkflowService(
	requestRepo port.RequestRepository,
	vehicleRepo port.VehicleRepository,
	auditRepo port.AuditLogRepository,
	directory port.ActorDirectory,
	txManager port.TransactionManager,
	notifier TransitionNotifier,
	events dispatcher.Dispatcher,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		requestRepo: requestRepo,
		vehicleRepo: vehicleRepo,
		auditRepo:   auditRepo,
		directory:   directory,
		txManager:   txManager,
		notifier:    notifier,
		events:      events,
		logger:      logger,
	}
}

// Act validates and executes one approver action. On any validation or
// precondition failure nothing is persisted; on success the request state
// and audit entry commit atomically and notifications follow best-effort.
func (s *workflowServiceImpl) Act(ctx context.Context, input ActionInput) (*TransitionResult, error) {
	if input.Actor == nil {
		return nil, fmt.Errorf("%w: actor is required", workflow.ErrValidation)
	}
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown request kind %q", workflow.ErrValidation, input.Kind)
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", workflow.ErrValidation, input.Action)
	}

	var (
		req          *entity.Request
		boundVehicle *entity.Vehicle
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, input.Kind, input.RequestID)
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("%w: %s request %d", ErrNotFound, input.Kind, input.RequestID)
		}

		if req.IsTerminal() {
			return fmt.Errorf("%w: request %d is %s", workflow.ErrAlreadyTerminal, req.ID, req.Status)
		}

		if err := s.validateActor(txCtx, req, input.Actor); err != nil {
			return err
		}

		machine := workflow.BuildApprovalStateMachine(req.Status)

		switch input.Action {
		case workflow.TriggerForward:
			err = s.applyForward(txCtx, machine, req, input.Actor)
		case workflow.TriggerReject:
			err = s.applyReject(txCtx, machine, req, input.RejectionMessage)
		case workflow.TriggerApprove:
			boundVehicle, err = s.applyApprove(txCtx, machine, req, input)
		}
		if err != nil {
			return err
		}

		if err := s.requestRepo.UpdateTransition(txCtx, req); err != nil {
			return fmt.Errorf("persist transition: %w", err)
		}

		entry := &entity.AuditLogEntry{
			Kind:      req.Kind,
			RequestID: req.ID,
			ActorID:   input.Actor.ID,
			Action:    auditAction(input.Action),
			Remarks:   auditRemarks(input, boundVehicle),
			Timestamp: time.Now(),
		}
		if err := s.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request transition committed",
		"kind", req.Kind, "request_id", req.ID,
		"action", input.Action, "status", req.Status,
		"approver_role", req.ApproverRole)

	// notifications run after commit and can only produce warnings
	warnings := s.notifier.NotifyTransition(ctx, req, input.Actor, input.Action, boundVehicle)
	for _, w := range warnings {
		s.logger.Error("Notification warning", "request_id", req.ID, "warning", w)
	}

	if s.events != nil {
		s.events.DispatchAsync(ctx, event.New(transitionEventType(input.Action), req.Kind, req.ID, input.Actor.ID,
			map[string]interface{}{
				"status":        req.Status.String(),
				"approver_role": req.ApproverRole.String(),
			}))
	}

	return &TransitionResult{Request: req, Warnings: warnings}, nil
}

// validateActor enforces the current-approver rule plus the department
// scope restriction for ordinary trips.
func (s *workflowServiceImpl) validateActor(ctx context.Context, req *entity.Request, actor *entity.User) error {
	if actor.Role != req.ApproverRole {
		return fmt.Errorf("%w: role %s cannot act, request awaits %s", workflow.ErrUnauthorized, actor.Role, req.ApproverRole)
	}

	if req.Kind == workflow.KindTrip && actor.Role == workflow.RoleDepartmentManager {
		requester, err := s.directory.GetByID(ctx, req.RequesterID)
		if err != nil {
			return fmt.Errorf("load requester: %w", err)
		}
		if requester == nil || !actor.SameDepartment(requester) {
			return fmt.Errorf("%w: request belongs to another department", workflow.ErrForbidden)
		}
	}

	return nil
}

func (s *workflowServiceImpl) applyForward(ctx context.Context, machine workflow.StateMachine, req *entity.Request, actor *entity.User) error {
	if err := s.checkForwardPreconditions(req, actor); err != nil {
		return err
	}

	nextRole, ok := workflow.NextRole(req.Kind, req.HierarchyStep)
	if !ok {
		return fmt.Errorf("%w: %s hierarchy exhausted at %s", workflow.ErrNoFurtherApprover, req.Kind, req.ApproverRole)
	}

	if err := machine.Fire(ctx, workflow.TriggerForward); err != nil {
		return err
	}

	req.Status = machine.State()
	req.HierarchyStep++
	req.ApproverRole = nextRole
	return nil
}

// checkForwardPreconditions enforces the estimation and document gates
// certain stages must clear before the request may advance.
func (s *workflowServiceImpl) checkForwardPreconditions(req *entity.Request, actor *entity.User) error {
	switch req.Kind {
	case workflow.KindRefueling, workflow.KindHighCostTrip:
		if actor.Role == workflow.RoleTransportManager && !req.HasEstimate() {
			return fmt.Errorf("%w: distance and fuel price must be estimated before forwarding", workflow.ErrPreconditionMissing)
		}
	case workflow.KindMaintenance:
		if actor.Role == workflow.RoleGeneralSystem && !req.HasMaintenanceDocs() {
			return fmt.Errorf("%w: maintenance letter, receipt and total cost must be submitted before forwarding", workflow.ErrPreconditionMissing)
		}
	}
	return nil
}

func (s *workflowServiceImpl) applyReject(ctx context.Context, machine workflow.StateMachine, req *entity.Request, message string) error {
	if message == "" {
		return fmt.Errorf("%w: rejection message is required", workflow.ErrValidation)
	}

	if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
		return err
	}

	req.Status = machine.State()
	req.RejectionMessage = message
	return nil
}

// applyApprove performs the terminal approval. For ordinary trips the
// vehicle reservation and the status write share the surrounding
// transaction, so either both commit or neither does.
func (s *workflowServiceImpl) applyApprove(ctx context.Context, machine workflow.StateMachine, req *entity.Request, input ActionInput) (*entity.Vehicle, error) {
	terminalRole, ok := workflow.TerminalApprover(req.Kind)
	if !ok || input.Actor.Role != terminalRole {
		return nil, fmt.Errorf("%w: %s cannot approve a %s request", workflow.ErrForbidden, input.Actor.Role, req.Kind)
	}

	var vehicle *entity.Vehicle
	if req.Kind == workflow.KindTrip {
		if input.VehicleID == nil {
			return nil, fmt.Errorf("%w: vehicle id is required to approve a trip", workflow.ErrValidation)
		}

		var err error
		vehicle, err = s.vehicleRepo.GetByID(ctx, *input.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle: %w", err)
		}
		if vehicle == nil {
			return nil, fmt.Errorf("%w: vehicle %d does not exist", workflow.ErrValidation, *input.VehicleID)
		}
		if !vehicle.IsAvailable() {
			return nil, fmt.Errorf("%w: vehicle %s is %s", workflow.ErrResourceUnavailable, vehicle.LicensePlate, vehicle.Status)
		}
		if !vehicle.HasDriver() {
			return nil, fmt.Errorf("%w: vehicle %s has no assigned driver", workflow.ErrPreconditionMissing, vehicle.LicensePlate)
		}

		if err := s.vehicleRepo.Reserve(ctx, vehicle.ID); err != nil {
			return nil, err
		}
		vehicle.Status = entity.VehicleInUse
		req.VehicleID = &vehicle.ID
	}

	if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
		return nil, err
	}

	req.Status = machine.State()
	return vehicle, nil
}

// GetRequest loads one request
func (s *workflowServiceImpl) GetRequest(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s request %d", ErrNotFound, kind, id)
	}
	return req, nil
}

// ListForActor returns the requests an actor should see: approvers see the
// queue awaiting their role, everyone else sees their own submissions.
func (s *workflowServiceImpl) ListForActor(ctx context.Context, kind workflow.Kind, actor *entity.User) ([]*entity.Request, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", workflow.ErrValidation)
	}

	first, _ := workflow.FirstRole(kind)
	switch {
	case actor.Role == first:
		return s.requestRepo.ListForRole(ctx, kind, actor.Role, workflow.StatePending)
	case roleInChain(kind, actor.Role):
		return s.requestRepo.ListForRole(ctx, kind, actor.Role, workflow.StateForwarded)
	default:
		return s.requestRepo.ListByRequester(ctx, kind, actor.ID)
	}
}

// AuditTrail returns the append-only action log for one request
func (s *workflowServiceImpl) AuditTrail(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error) {
	return s.auditRepo.ListByRequest(ctx, kind, requestID)
}

func roleInChain(kind workflow.Kind, role workflow.Role) bool {
	for step := 0; step < workflow.ChainLength(kind); step++ {
		if r, ok := workflow.RoleAtStep(kind, step); ok && r == role {
			return true
		}
	}
	return false
}

func auditAction(action workflow.Trigger) string {
	switch action {
	case workflow.TriggerApprove:
		return "approved"
	case workflow.TriggerReject:
		return "rejected"
	default:
		return "forwarded"
	}
}

func auditRemarks(input ActionInput, vehicle *entity.Vehicle) string {
	switch input.Action {
	case workflow.TriggerReject:
		return input.RejectionMessage
	case workflow.TriggerApprove:
		if vehicle != nil {
			return fmt.Sprintf("Vehicle: %s", vehicle.LicensePlate)
		}
	}
	return ""
}

func transitionEventType(action workflow.Trigger) event.Type {
	switch action {
	case workflow.TriggerApprove:
		return event.TypeRequestApproved
	case workflow.TriggerReject:
		return event.TypeRequestRejected
	default:
		return event.TypeRequestForwarded
	}
}
