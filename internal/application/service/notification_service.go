package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// approvalStakeholders lists, per request kind, the roles that track the
// resulting spending and are copied on final approval alongside the
// requester. Ordinary trips carry no cost approval, so they have no entry.
var approvalStakeholders = map[workflow.Kind][]workflow.Role{
	workflow.KindHighCostTrip: {workflow.RoleFinanceManager, workflow.RoleTransportManager},
	workflow.KindMaintenance:  {workflow.RoleFinanceManager},
	workflow.KindRefueling:    {workflow.RoleFinanceManager},
}

// kindLabels render each request kind as it appears in notification text.
var kindLabels = map[workflow.Kind]string{
	workflow.KindTrip:         "transport",
	workflow.KindHighCostTrip: "high-cost transport",
	workflow.KindMaintenance:  "maintenance",
	workflow.KindRefueling:    "refueling",
}

type notificationTemplate struct {
	title          string
	priority       string
	actionRequired bool
	message        func(req *entity.Request, actor *entity.User, vehicle *entity.Vehicle) string
}

// notificationTemplates maps notification type to its rendering. Message
// wording follows the operational copy used throughout the organization.
var notificationTemplates = map[string]notificationTemplate{
	entity.NotifyNewRequest: {
		title:          "New %s Request",
		priority:       entity.PriorityNormal,
		actionRequired: true,
		message: func(req *entity.Request, actor *entity.User, _ *entity.Vehicle) string {
			if req.Kind == workflow.KindTrip || req.Kind == workflow.KindHighCostTrip {
				return fmt.Sprintf("%s has submitted a new %s request to %s on %s.",
					actor.FullName, kindLabels[req.Kind], req.Destination, formatDay(req.StartDay))
			}
			return fmt.Sprintf("%s has submitted a new %s request.", actor.FullName, kindLabels[req.Kind])
		},
	},
	entity.NotifyForwarded: {
		title:          "%s Request Forwarded",
		priority:       entity.PriorityNormal,
		actionRequired: true,
		message: func(req *entity.Request, _ *entity.User, _ *entity.Vehicle) string {
			return fmt.Sprintf("%s request #%d has been forwarded for your approval.",
				titleLabel(req.Kind), req.ID)
		},
	},
	entity.NotifyApproved: {
		title:    "%s Request Approved",
		priority: entity.PriorityNormal,
		message: func(req *entity.Request, actor *entity.User, vehicle *entity.Vehicle) string {
			if req.Kind == workflow.KindTrip && vehicle != nil {
				return fmt.Sprintf("Your transport request #%d has been approved by %s. Vehicle: %s. Destination: %s, Date: %s.",
					req.ID, actor.FullName, vehicle.LicensePlate, req.Destination, formatDay(req.StartDay))
			}
			return fmt.Sprintf("Your %s request #%d has been approved by %s.",
				kindLabels[req.Kind], req.ID, actor.FullName)
		},
	},
	entity.NotifyRejected: {
		title:    "%s Request Rejected",
		priority: entity.PriorityHigh,
		message: func(req *entity.Request, actor *entity.User, _ *entity.Vehicle) string {
			return fmt.Sprintf("Your %s request #%d has been rejected by %s. Rejection Reason: %s.",
				kindLabels[req.Kind], req.ID, actor.FullName, req.RejectionMessage)
		},
	},
	entity.NotifyVehicleAssigned: {
		title:          "Vehicle Assigned",
		priority:       entity.PriorityNormal,
		actionRequired: true,
		message: func(req *entity.Request, _ *entity.User, vehicle *entity.Vehicle) string {
			return fmt.Sprintf("You have been assigned to drive vehicle %s for %s request #%d. Destination: %s, Date: %s. Please be prepared.",
				vehicle.LicensePlate, kindLabels[req.Kind], req.ID, req.Destination, formatDay(req.StartDay))
		},
	},
	entity.NotifyServiceDue: {
		title:          "Service Due Notification",
		priority:       entity.PriorityHigh,
		actionRequired: true,
		message: func(_ *entity.Request, _ *entity.User, vehicle *entity.Vehicle) string {
			return fmt.Sprintf("Vehicle %s (Plate: %s) has reached %.0f km. It now requires servicing. Please schedule maintenance as soon as possible.",
				vehicle.Model, vehicle.LicensePlate, vehicle.TotalKilometers)
		},
	},
}

// NotificationService persists per-recipient notifications for workflow
// transitions and serves the recipient-facing queries. All Notify methods
// are best-effort: a persistence failure for one recipient is reported as
// a warning string and never blocks the caller.
type NotificationService interface {
	TransitionNotifier

	NotifyNewRequest(ctx context.Context, req *entity.Request, requester *entity.User) []string
	NotifyVehicleAssigned(ctx context.Context, req *entity.Request, driverID int64, vehicle *entity.Vehicle) []string
	NotifyServiceDue(ctx context.Context, vehicle *entity.Vehicle) []string

	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
	DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	directory        port.ActorDirectory
	logger           Logger
}

// NewNotificationService creates the notification service
func NewNotificationService(notificationRepo port.NotificationRepository, directory port.ActorDirectory, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		directory:        directory,
		logger:           logger,
	}
}

// NotifyTransition creates the notifications owed for one committed
// transition: forward notifies every active holder of the next approver
// role; reject notifies the requester. Approve notifies the requester,
// the assigned driver on ordinary trips, and the finance/transport
// stakeholders that track the approved cost on the other kinds.
func (s *notificationServiceImpl) NotifyTransition(ctx context.Context, req *entity.Request, actor *entity.User, action workflow.Trigger, vehicle *entity.Vehicle) []string {
	var warnings []string

	switch action {
	case workflow.TriggerForward:
		recipients, err := s.directory.ActiveWithRole(ctx, req.ApproverRole)
		if err != nil {
			return append(warnings, fmt.Sprintf("resolve %s recipients: %v", req.ApproverRole, err))
		}
		if len(recipients) == 0 {
			warnings = append(warnings, fmt.Sprintf("no active %s to notify for request %d", req.ApproverRole, req.ID))
		}
		for _, recipient := range recipients {
			warnings = s.create(ctx, warnings, entity.NotifyForwarded, req, actor, nil, recipient.ID)
		}

	case workflow.TriggerApprove:
		notified := map[int64]bool{req.RequesterID: true}
		warnings = s.create(ctx, warnings, entity.NotifyApproved, req, actor, vehicle, req.RequesterID)
		if req.Kind == workflow.KindTrip && vehicle != nil && vehicle.DriverID != nil && !notified[*vehicle.DriverID] {
			notified[*vehicle.DriverID] = true
			warnings = s.create(ctx, warnings, entity.NotifyVehicleAssigned, req, actor, vehicle, *vehicle.DriverID)
		}
		for _, role := range approvalStakeholders[req.Kind] {
			recipients, err := s.directory.ActiveWithRole(ctx, role)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("resolve %s recipients: %v", role, err))
				continue
			}
			for _, recipient := range recipients {
				if notified[recipient.ID] {
					continue
				}
				notified[recipient.ID] = true
				warnings = s.create(ctx, warnings, entity.NotifyApproved, req, actor, vehicle, recipient.ID)
			}
		}

	case workflow.TriggerReject:
		warnings = s.create(ctx, warnings, entity.NotifyRejected, req, actor, nil, req.RequesterID)
	}

	return warnings
}

// NotifyNewRequest alerts every active holder of the first approver role
// that a fresh request awaits them.
func (s *notificationServiceImpl) NotifyNewRequest(ctx context.Context, req *entity.Request, requester *entity.User) []string {
	var warnings []string

	recipients, err := s.directory.ActiveWithRole(ctx, req.ApproverRole)
	if err != nil {
		return append(warnings, fmt.Sprintf("resolve %s recipients: %v", req.ApproverRole, err))
	}
	if len(recipients) == 0 {
		warnings = append(warnings, fmt.Sprintf("no active %s to notify for new request %d", req.ApproverRole, req.ID))
	}
	for _, recipient := range recipients {
		// department managers only see their own department's trips
		if req.Kind == workflow.KindTrip && recipient.Role == workflow.RoleDepartmentManager && !recipient.SameDepartment(requester) {
			continue
		}
		warnings = s.create(ctx, warnings, entity.NotifyNewRequest, req, requester, nil, recipient.ID)
	}

	return warnings
}

// NotifyVehicleAssigned alerts a driver about a deferred high-cost dispatch.
func (s *notificationServiceImpl) NotifyVehicleAssigned(ctx context.Context, req *entity.Request, driverID int64, vehicle *entity.Vehicle) []string {
	return s.create(ctx, nil, entity.NotifyVehicleAssigned, req, nil, vehicle, driverID)
}

// NotifyServiceDue alerts every active transport manager that a vehicle has
// crossed the service interval.
func (s *notificationServiceImpl) NotifyServiceDue(ctx context.Context, vehicle *entity.Vehicle) []string {
	var warnings []string

	recipientIDs := make(map[int64]bool)
	for _, role := range []workflow.Role{workflow.RoleTransportManager, workflow.RoleGeneralSystem} {
		recipients, err := s.directory.ActiveWithRole(ctx, role)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("resolve %s recipients: %v", role, err))
			continue
		}
		for _, recipient := range recipients {
			recipientIDs[recipient.ID] = true
		}
	}
	if vehicle.DriverID != nil {
		recipientIDs[*vehicle.DriverID] = true
	}

	tmpl := notificationTemplates[entity.NotifyServiceDue]
	for recipientID := range recipientIDs {
		n := &entity.Notification{
			RecipientID:    recipientID,
			VehicleID:      &vehicle.ID,
			Type:           entity.NotifyServiceDue,
			Title:          tmpl.title,
			Message:        tmpl.message(nil, nil, vehicle),
			Priority:       tmpl.priority,
			ActionRequired: tmpl.actionRequired,
			CreatedAt:      time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			warnings = append(warnings, fmt.Sprintf("notify user %d: %v", recipientID, err))
		}
	}

	return warnings
}

func (s *notificationServiceImpl) create(ctx context.Context, warnings []string, notifType string, req *entity.Request, actor *entity.User, vehicle *entity.Vehicle, recipientID int64) []string {
	tmpl, ok := notificationTemplates[notifType]
	if !ok {
		return append(warnings, fmt.Sprintf("unknown notification type %q", notifType))
	}

	title := tmpl.title
	if notifType != entity.NotifyVehicleAssigned && notifType != entity.NotifyServiceDue {
		title = fmt.Sprintf(tmpl.title, titleLabel(req.Kind))
	}

	n := &entity.Notification{
		RecipientID:    recipientID,
		Kind:           req.Kind,
		RequestID:      &req.ID,
		Type:           notifType,
		Title:          title,
		Message:        tmpl.message(req, actor, vehicle),
		Priority:       tmpl.priority,
		ActionRequired: tmpl.actionRequired,
		CreatedAt:      time.Now(),
	}
	if vehicle != nil {
		n.VehicleID = &vehicle.ID
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return append(warnings, fmt.Sprintf("notify user %d: %v", recipientID, err))
	}
	return warnings
}

// ListByRecipient returns a recipient's notifications, newest first
func (s *notificationServiceImpl) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByRecipient(ctx, recipientID, unreadOnly, limit, offset)
}

// CountUnread returns the recipient's unread notification count
func (s *notificationServiceImpl) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	return s.notificationRepo.CountUnread(ctx, recipientID)
}

// MarkRead marks one notification read; recipients can only mark their own
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, recipientID int64) error {
	return s.notificationRepo.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks all of a recipient's notifications read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, recipientID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}

// DeleteOlderThan removes notifications older than the retention window
func (s *notificationServiceImpl) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("Old notifications removed", "count", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

func titleLabel(kind workflow.Kind) string {
	switch kind {
	case workflow.KindTrip:
		return "Transport"
	case workflow.KindHighCostTrip:
		return "High-Cost Transport"
	case workflow.KindMaintenance:
		return "Maintenance"
	case workflow.KindRefueling:
		return "Refueling"
	}
	return "Transport"
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "unscheduled"
	}
	return t.Format("2006-01-02")
}
