package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

func newAllocatorService(requestRepo *mockRequestRepo, vehicleRepo *mockVehicleRepo, notificationRepo *mockNotificationRepo, directory *mockDirectory) AllocatorService {
	notifier := NewNotificationService(notificationRepo, directory, nopLogger{})
	return NewAllocatorService(requestRepo, vehicleRepo, &mockAuditRepo{}, &mockTxManager{}, notifier, nil, nopLogger{})
}

func approvedHighCostTrip() *entity.Request {
	req := testRequest(workflow.KindHighCostTrip, workflow.StateApproved, 3)
	req.Destination = "Bahir Dar"
	return req
}

func TestAssignToApprovedTrip(t *testing.T) {
	req := approvedHighCostTrip()
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			return testVehicle(id, entity.VehicleAvailable), nil
		},
	}
	notificationRepo := &mockNotificationRepo{}
	svc := newAllocatorService(requestRepo, vehicleRepo, notificationRepo, &mockDirectory{})

	got, warnings, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 5)
	if err != nil {
		t.Fatalf("expected assignment to succeed, got %v", err)
	}
	if !got.VehicleAssigned {
		t.Error("expected request marked vehicle_assigned")
	}
	if got.VehicleID == nil || *got.VehicleID != 5 {
		t.Errorf("expected vehicle 5 bound, got %v", got.VehicleID)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	// the driver gets the assignment notice
	if len(notificationRepo.created) != 1 || notificationRepo.created[0].Type != entity.NotifyVehicleAssigned {
		t.Fatalf("expected one assignment notification, got %v", notificationRepo.created)
	}
}

func TestAssignToApprovedTripFallsBackToEstimatedVehicle(t *testing.T) {
	estimated := int64(7)
	req := approvedHighCostTrip()
	req.EstimatedVehicleID = &estimated
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			return testVehicle(id, entity.VehicleAvailable), nil
		},
	}
	svc := newAllocatorService(requestRepo, vehicleRepo, &mockNotificationRepo{}, &mockDirectory{})

	got, _, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 0)
	if err != nil {
		t.Fatalf("expected dispatch of the estimated vehicle, got %v", err)
	}
	if got.VehicleID == nil || *got.VehicleID != estimated {
		t.Errorf("expected estimated vehicle %d bound, got %v", estimated, got.VehicleID)
	}
}

func TestAssignToApprovedTripWithoutEstimate(t *testing.T) {
	req := approvedHighCostTrip()
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	svc := newAllocatorService(requestRepo, &mockVehicleRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	_, _, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 0)
	if !errors.Is(err, workflow.ErrPreconditionMissing) {
		t.Errorf("expected ErrPreconditionMissing without an estimated vehicle, got %v", err)
	}
}

func TestAssignToApprovedTripOneShot(t *testing.T) {
	req := approvedHighCostTrip()
	req.VehicleAssigned = true
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	svc := newAllocatorService(requestRepo, &mockVehicleRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	_, _, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 5)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Errorf("expected ErrConflict on second assignment, got %v", err)
	}
}

func TestAssignToApprovedTripRequiresApprovedState(t *testing.T) {
	req := testRequest(workflow.KindHighCostTrip, workflow.StateForwarded, 2)
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	svc := newAllocatorService(requestRepo, &mockVehicleRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	_, _, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 5)
	if !errors.Is(err, workflow.ErrValidation) {
		t.Errorf("expected ErrValidation before approval, got %v", err)
	}
}

func TestAssignToApprovedTripUnavailableVehicle(t *testing.T) {
	req := approvedHighCostTrip()
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			return testVehicle(id, entity.VehicleMaintenance), nil
		},
	}
	svc := newAllocatorService(requestRepo, vehicleRepo, &mockNotificationRepo{}, &mockDirectory{})

	_, _, err := svc.AssignToApprovedTrip(context.Background(), 1, testUser(2, workflow.RoleTransportManager), 5)
	if !errors.Is(err, workflow.ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestCompleteTripReleasesVehicle(t *testing.T) {
	vehicleID := int64(5)
	req := testRequest(workflow.KindTrip, workflow.StateApproved, 4)
	req.VehicleID = &vehicleID

	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	var statusSet string
	var kilometersAdded float64
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			v := testVehicle(id, entity.VehicleInUse)
			v.TotalKilometers = 1000
			return v, nil
		},
		updateStatusFunc: func(ctx context.Context, id int64, status string) error {
			statusSet = status
			return nil
		},
		addKilometersFunc: func(ctx context.Context, id int64, kilometers float64) error {
			kilometersAdded = kilometers
			return nil
		},
	}
	svc := newAllocatorService(requestRepo, vehicleRepo, &mockNotificationRepo{}, &mockDirectory{})

	got, warnings, err := svc.CompleteTrip(context.Background(), workflow.KindTrip, 1, testUser(99, workflow.RoleDriver), 250)
	if err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}
	if !got.TripCompleted {
		t.Error("expected trip marked completed")
	}
	if statusSet != entity.VehicleAvailable {
		t.Errorf("expected vehicle released to available, got %s", statusSet)
	}
	if kilometersAdded != 250 {
		t.Errorf("expected 250 km accrued, got %f", kilometersAdded)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestCompleteTripCrossingServiceInterval(t *testing.T) {
	vehicleID := int64(5)
	req := testRequest(workflow.KindTrip, workflow.StateApproved, 4)
	req.VehicleID = &vehicleID

	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	var statusSet string
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			v := testVehicle(id, entity.VehicleInUse)
			v.TotalKilometers = 4900
			v.LastServiceKilometers = 0
			return v, nil
		},
		updateStatusFunc: func(ctx context.Context, id int64, status string) error {
			statusSet = status
			return nil
		},
	}
	notificationRepo := &mockNotificationRepo{}
	directory := &mockDirectory{
		activeWithRoleFunc: func(ctx context.Context, role workflow.Role) ([]*entity.User, error) {
			return []*entity.User{testUser(2, role)}, nil
		},
	}
	svc := newAllocatorService(requestRepo, vehicleRepo, notificationRepo, directory)

	_, _, err := svc.CompleteTrip(context.Background(), workflow.KindTrip, 1, testUser(99, workflow.RoleDriver), 200)
	if err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}
	// 4900 + 200 >= 5000: parked for service, fleet staff and driver alerted
	if statusSet != entity.VehicleService {
		t.Errorf("expected vehicle parked for service, got %s", statusSet)
	}
	if len(notificationRepo.created) != 2 {
		t.Fatalf("expected service-due notifications for fleet staff and driver, got %v", notificationRepo.created)
	}
	for _, n := range notificationRepo.created {
		if n.Type != entity.NotifyServiceDue {
			t.Errorf("expected service-due notification, got %s", n.Type)
		}
	}
}

func TestCompleteTripTwice(t *testing.T) {
	vehicleID := int64(5)
	req := testRequest(workflow.KindTrip, workflow.StateApproved, 4)
	req.VehicleID = &vehicleID
	req.TripCompleted = true

	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	svc := newAllocatorService(requestRepo, &mockVehicleRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	_, _, err := svc.CompleteTrip(context.Background(), workflow.KindTrip, 1, testUser(99, workflow.RoleDriver), 100)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Errorf("expected ErrConflict on double completion, got %v", err)
	}
}

func TestCompleteTripByNonDriver(t *testing.T) {
	vehicleID := int64(5)
	req := testRequest(workflow.KindTrip, workflow.StateApproved, 4)
	req.VehicleID = &vehicleID

	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
			return req, nil
		},
	}
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			return testVehicle(id, entity.VehicleInUse), nil
		},
	}
	svc := newAllocatorService(requestRepo, vehicleRepo, &mockNotificationRepo{}, &mockDirectory{})

	// The fixture vehicle's driver is user 99; the requester cannot complete.
	_, _, err := svc.CompleteTrip(context.Background(), workflow.KindTrip, 1, testUser(10, workflow.RoleEmployee), 100)
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-driver, got %v", err)
	}
}
