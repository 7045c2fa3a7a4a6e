package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

func newVehicleService(vehicleRepo *mockVehicleRepo, kilometerRepo *mockKilometerRepo, notificationRepo *mockNotificationRepo, directory *mockDirectory) VehicleService {
	notifier := NewNotificationService(notificationRepo, directory, nopLogger{})
	return NewVehicleService(vehicleRepo, kilometerRepo, directory, &mockTxManager{}, notifier, nopLogger{})
}

func TestRegisterVehicle(t *testing.T) {
	svc := newVehicleService(&mockVehicleRepo{}, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	vehicle, err := svc.Register(context.Background(), testUser(2, workflow.RoleTransportManager), VehicleInput{
		LicensePlate:   "AA-5678",
		Model:          "Land Cruiser",
		Capacity:       7,
		Source:         entity.SourceOrganization,
		FuelType:       entity.FuelBenzene,
		FuelEfficiency: 8,
	})
	if err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
	if vehicle.Status != entity.VehicleAvailable {
		t.Errorf("expected new vehicle available, got %s", vehicle.Status)
	}
}

func TestRegisterVehicleValidation(t *testing.T) {
	svc := newVehicleService(&mockVehicleRepo{}, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})
	tm := testUser(2, workflow.RoleTransportManager)

	tests := []struct {
		name    string
		input   VehicleInput
		actor   *entity.User
		wantErr error
	}{
		{
			name:    "non-manager",
			input:   VehicleInput{LicensePlate: "AA-1", Model: "Hiace", Source: entity.SourceOrganization, FuelEfficiency: 10},
			actor:   testUser(3, workflow.RoleEmployee),
			wantErr: workflow.ErrForbidden,
		},
		{
			name:    "missing plate",
			input:   VehicleInput{Model: "Hiace", Source: entity.SourceOrganization, FuelEfficiency: 10},
			actor:   tm,
			wantErr: workflow.ErrValidation,
		},
		{
			name:    "rented without company",
			input:   VehicleInput{LicensePlate: "AA-1", Model: "Hiace", Source: entity.SourceRented, FuelEfficiency: 10},
			actor:   tm,
			wantErr: workflow.ErrValidation,
		},
		{
			name:    "zero fuel efficiency",
			input:   VehicleInput{LicensePlate: "AA-1", Model: "Hiace", Source: entity.SourceOrganization},
			actor:   tm,
			wantErr: workflow.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.actor, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAssignDriverRejectsDoubleBinding(t *testing.T) {
	directory := &mockDirectory{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
			return testUser(id, workflow.RoleDriver), nil
		},
	}
	vehicleRepo := &mockVehicleRepo{
		getByDriverIDFunc: func(ctx context.Context, driverID int64) (*entity.Vehicle, error) {
			return testVehicle(9, entity.VehicleAvailable), nil
		},
	}
	svc := newVehicleService(vehicleRepo, &mockKilometerRepo{}, &mockNotificationRepo{}, directory)

	err := svc.AssignDriver(context.Background(), testUser(2, workflow.RoleTransportManager), 5, 99)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Errorf("expected ErrConflict for driver bound elsewhere, got %v", err)
	}
}

func TestAssignDriverRejectsNonDriver(t *testing.T) {
	directory := &mockDirectory{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
			return testUser(id, workflow.RoleEmployee), nil
		},
	}
	svc := newVehicleService(&mockVehicleRepo{}, &mockKilometerRepo{}, &mockNotificationRepo{}, directory)

	err := svc.AssignDriver(context.Background(), testUser(2, workflow.RoleTransportManager), 5, 10)
	if !errors.Is(err, workflow.ErrValidation) {
		t.Errorf("expected ErrValidation for non-driver, got %v", err)
	}
}

func TestRecordMonthlyKilometers(t *testing.T) {
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			v := testVehicle(id, entity.VehicleAvailable)
			v.TotalKilometers = 1200
			return v, nil
		},
	}
	svc := newVehicleService(vehicleRepo, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	log, warnings, err := svc.RecordMonthlyKilometers(context.Background(), KilometerLogInput{
		VehicleID:        5,
		Month:            "2026-08",
		KilometersDriven: 320,
		RecordedBy:       testUser(99, workflow.RoleDriver),
	})
	if err != nil {
		t.Fatalf("expected recording to succeed, got %v", err)
	}
	if log.Month != "2026-08" || log.KilometersDriven != 320 {
		t.Errorf("unexpected log record: %+v", log)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings below the service interval, got %v", warnings)
	}
}

func TestRecordMonthlyKilometersMonthFormat(t *testing.T) {
	svc := newVehicleService(&mockVehicleRepo{}, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	for _, month := range []string{"2026-13", "08-2026", "202608", "2026-8"} {
		_, _, err := svc.RecordMonthlyKilometers(context.Background(), KilometerLogInput{
			VehicleID:        5,
			Month:            month,
			KilometersDriven: 100,
			RecordedBy:       testUser(99, workflow.RoleDriver),
		})
		if !errors.Is(err, workflow.ErrValidation) {
			t.Errorf("month %q: expected ErrValidation, got %v", month, err)
		}
	}
}

func TestRecordMonthlyKilometersServiceDue(t *testing.T) {
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			v := testVehicle(id, entity.VehicleAvailable)
			v.TotalKilometers = 4800
			return v, nil
		},
	}
	notificationRepo := &mockNotificationRepo{}
	directory := &mockDirectory{
		activeWithRoleFunc: func(ctx context.Context, role workflow.Role) ([]*entity.User, error) {
			return []*entity.User{testUser(2, role)}, nil
		},
	}
	svc := newVehicleService(vehicleRepo, &mockKilometerRepo{}, notificationRepo, directory)

	_, warnings, err := svc.RecordMonthlyKilometers(context.Background(), KilometerLogInput{
		VehicleID:        5,
		Month:            "2026-08",
		KilometersDriven: 400,
		RecordedBy:       testUser(2, workflow.RoleTransportManager),
	})
	if err != nil {
		t.Fatalf("expected recording to succeed, got %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	// both fleet roles resolve to user 2 and the fixture driver is user 99
	if len(notificationRepo.created) != 2 {
		t.Fatalf("expected service-due notifications for fleet staff and driver, got %v", notificationRepo.created)
	}
	for _, n := range notificationRepo.created {
		if n.Type != entity.NotifyServiceDue {
			t.Errorf("expected service-due notification, got %s", n.Type)
		}
	}
}

func TestMarkServicedResetsCounter(t *testing.T) {
	var resetAt float64
	var statusSet string
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			v := testVehicle(id, entity.VehicleService)
			v.TotalKilometers = 5400
			return v, nil
		},
		setLastServiceKilometersFunc: func(ctx context.Context, id int64, kilometers float64) error {
			resetAt = kilometers
			return nil
		},
		updateStatusFunc: func(ctx context.Context, id int64, status string) error {
			statusSet = status
			return nil
		},
	}
	svc := newVehicleService(vehicleRepo, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	if err := svc.MarkServiced(context.Background(), testUser(2, workflow.RoleTransportManager), 5); err != nil {
		t.Fatalf("expected servicing to succeed, got %v", err)
	}
	if resetAt != 5400 {
		t.Errorf("expected service counter reset at 5400, got %f", resetAt)
	}
	if statusSet != entity.VehicleAvailable {
		t.Errorf("expected vehicle back to available, got %s", statusSet)
	}
}

func TestMarkServicedRejectsInUse(t *testing.T) {
	vehicleRepo := &mockVehicleRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Vehicle, error) {
			return testVehicle(id, entity.VehicleInUse), nil
		},
	}
	svc := newVehicleService(vehicleRepo, &mockKilometerRepo{}, &mockNotificationRepo{}, &mockDirectory{})

	err := svc.MarkServiced(context.Background(), testUser(2, workflow.RoleTransportManager), 5)
	if !errors.Is(err, workflow.ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable for in-use vehicle, got %v", err)
	}
}
