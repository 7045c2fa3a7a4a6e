package service

import (
	"context"
	"time"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// Mock repositories

type mockRequestRepo struct {
	createFunc              func(ctx context.Context, req *entity.Request) error
	getByIDFunc             func(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error)
	updateTransitionFunc    func(ctx context.Context, req *entity.Request) error
	setEstimateFunc         func(ctx context.Context, kind workflow.Kind, id int64, distanceKm, pricePerLiter, fuelLiters, totalCost float64, estimatedVehicleID *int64) error
	setMaintenanceDocsFunc  func(ctx context.Context, id int64, letterPath, receiptPath string, totalCost float64) error
	markVehicleAssignedFunc func(ctx context.Context, id, vehicleID int64) error
	markTripCompletedFunc   func(ctx context.Context, kind workflow.Kind, id int64) error
	listForRoleFunc         func(ctx context.Context, kind workflow.Kind, role workflow.Role, status workflow.State) ([]*entity.Request, error)
	listByRequesterFunc     func(ctx context.Context, kind workflow.Kind, requesterID int64) ([]*entity.Request, error)
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = 1
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, kind, id)
	}
	return nil, nil
}

func (m *mockRequestRepo) UpdateTransition(ctx context.Context, req *entity.Request) error {
	if m.updateTransitionFunc != nil {
		return m.updateTransitionFunc(ctx, req)
	}
	return nil
}

func (m *mockRequestRepo) SetEstimate(ctx context.Context, kind workflow.Kind, id int64, distanceKm, pricePerLiter, fuelLiters, totalCost float64, estimatedVehicleID *int64) error {
	if m.setEstimateFunc != nil {
		return m.setEstimateFunc(ctx, kind, id, distanceKm, pricePerLiter, fuelLiters, totalCost, estimatedVehicleID)
	}
	return nil
}

func (m *mockRequestRepo) SetMaintenanceDocs(ctx context.Context, id int64, letterPath, receiptPath string, totalCost float64) error {
	if m.setMaintenanceDocsFunc != nil {
		return m.setMaintenanceDocsFunc(ctx, id, letterPath, receiptPath, totalCost)
	}
	return nil
}

func (m *mockRequestRepo) MarkVehicleAssigned(ctx context.Context, id, vehicleID int64) error {
	if m.markVehicleAssignedFunc != nil {
		return m.markVehicleAssignedFunc(ctx, id, vehicleID)
	}
	return nil
}

func (m *mockRequestRepo) MarkTripCompleted(ctx context.Context, kind workflow.Kind, id int64) error {
	if m.markTripCompletedFunc != nil {
		return m.markTripCompletedFunc(ctx, kind, id)
	}
	return nil
}

func (m *mockRequestRepo) ListForRole(ctx context.Context, kind workflow.Kind, role workflow.Role, status workflow.State) ([]*entity.Request, error) {
	if m.listForRoleFunc != nil {
		return m.listForRoleFunc(ctx, kind, role, status)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListByRequester(ctx context.Context, kind workflow.Kind, requesterID int64) ([]*entity.Request, error) {
	if m.listByRequesterFunc != nil {
		return m.listByRequesterFunc(ctx, kind, requesterID)
	}
	return nil, nil
}

type mockVehicleRepo struct {
	createFunc                   func(ctx context.Context, v *entity.Vehicle) error
	getByIDFunc                  func(ctx context.Context, id int64) (*entity.Vehicle, error)
	getByDriverIDFunc            func(ctx context.Context, driverID int64) (*entity.Vehicle, error)
	listAvailableFunc            func(ctx context.Context) ([]*entity.Vehicle, error)
	reserveFunc                  func(ctx context.Context, id int64) error
	releaseFunc                  func(ctx context.Context, id int64) error
	updateStatusFunc             func(ctx context.Context, id int64, status string) error
	assignDriverFunc             func(ctx context.Context, vehicleID, driverID int64) error
	unassignDriverFunc           func(ctx context.Context, vehicleID int64) error
	addKilometersFunc            func(ctx context.Context, id int64, kilometers float64) error
	setLastServiceKilometersFunc func(ctx context.Context, id int64, kilometers float64) error
}

func (m *mockVehicleRepo) Create(ctx context.Context, v *entity.Vehicle) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, v)
	}
	v.ID = 1
	return nil
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockVehicleRepo) GetByDriverID(ctx context.Context, driverID int64) (*entity.Vehicle, error) {
	if m.getByDriverIDFunc != nil {
		return m.getByDriverIDFunc(ctx, driverID)
	}
	return nil, nil
}

func (m *mockVehicleRepo) ListAvailable(ctx context.Context) ([]*entity.Vehicle, error) {
	if m.listAvailableFunc != nil {
		return m.listAvailableFunc(ctx)
	}
	return nil, nil
}

func (m *mockVehicleRepo) Reserve(ctx context.Context, id int64) error {
	if m.reserveFunc != nil {
		return m.reserveFunc(ctx, id)
	}
	return nil
}

func (m *mockVehicleRepo) Release(ctx context.Context, id int64) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, id)
	}
	return nil
}

func (m *mockVehicleRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockVehicleRepo) AssignDriver(ctx context.Context, vehicleID, driverID int64) error {
	if m.assignDriverFunc != nil {
		return m.assignDriverFunc(ctx, vehicleID, driverID)
	}
	return nil
}

func (m *mockVehicleRepo) UnassignDriver(ctx context.Context, vehicleID int64) error {
	if m.unassignDriverFunc != nil {
		return m.unassignDriverFunc(ctx, vehicleID)
	}
	return nil
}

func (m *mockVehicleRepo) AddKilometers(ctx context.Context, id int64, kilometers float64) error {
	if m.addKilometersFunc != nil {
		return m.addKilometersFunc(ctx, id, kilometers)
	}
	return nil
}

func (m *mockVehicleRepo) SetLastServiceKilometers(ctx context.Context, id int64, kilometers float64) error {
	if m.setLastServiceKilometersFunc != nil {
		return m.setLastServiceKilometersFunc(ctx, id, kilometers)
	}
	return nil
}

type mockAuditRepo struct {
	appendFunc        func(ctx context.Context, entry *entity.AuditLogEntry) error
	listByRequestFunc func(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error)
	entries           []*entity.AuditLogEntry
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByRequest(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error) {
	if m.listByRequestFunc != nil {
		return m.listByRequestFunc(ctx, kind, requestID)
	}
	return m.entries, nil
}

type mockNotificationRepo struct {
	createFunc          func(ctx context.Context, n *entity.Notification) error
	listByRecipientFunc func(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	countUnreadFunc     func(ctx context.Context, recipientID int64) (int, error)
	markReadFunc        func(ctx context.Context, id, recipientID int64) error
	markAllReadFunc     func(ctx context.Context, recipientID int64) error
	deleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	created             []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	if m.listByRecipientFunc != nil {
		return m.listByRecipientFunc(ctx, recipientID, unreadOnly, limit, offset)
	}
	return m.created, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	if m.countUnreadFunc != nil {
		return m.countUnreadFunc(ctx, recipientID)
	}
	return len(m.created), nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, recipientID int64) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, recipientID)
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, recipientID int64) error {
	if m.markAllReadFunc != nil {
		return m.markAllReadFunc(ctx, recipientID)
	}
	return nil
}

func (m *mockNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteOlderThanFunc != nil {
		return m.deleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

type mockKilometerRepo struct {
	createFunc           func(ctx context.Context, log *entity.MonthlyKilometerLog) error
	listByVehicleFunc    func(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error)
	listByMonthRangeFunc func(ctx context.Context, fromMonth, toMonth string) ([]*entity.MonthlyKilometerLog, error)
}

func (m *mockKilometerRepo) Create(ctx context.Context, log *entity.MonthlyKilometerLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	log.ID = 1
	return nil
}

func (m *mockKilometerRepo) ListByVehicle(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error) {
	if m.listByVehicleFunc != nil {
		return m.listByVehicleFunc(ctx, vehicleID)
	}
	return nil, nil
}

func (m *mockKilometerRepo) ListByMonthRange(ctx context.Context, fromMonth, toMonth string) ([]*entity.MonthlyKilometerLog, error) {
	if m.listByMonthRangeFunc != nil {
		return m.listByMonthRangeFunc(ctx, fromMonth, toMonth)
	}
	return nil, nil
}

type mockDirectory struct {
	getByIDFunc        func(ctx context.Context, id int64) (*entity.User, error)
	activeWithRoleFunc func(ctx context.Context, role workflow.Role) ([]*entity.User, error)
}

func (m *mockDirectory) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockDirectory) ActiveWithRole(ctx context.Context, role workflow.Role) ([]*entity.User, error) {
	if m.activeWithRoleFunc != nil {
		return m.activeWithRoleFunc(ctx, role)
	}
	return nil, nil
}

// mockTxManager runs the function directly without a real transaction
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockStorage struct {
	saveFunc func(relPath string, content []byte) (string, error)
}

func (m *mockStorage) Save(relPath string, content []byte) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(relPath, content)
	}
	return relPath, nil
}

func (m *mockStorage) Read(relPath string) ([]byte, error) { return nil, nil }
func (m *mockStorage) Delete(relPath string) error         { return nil }

type mockNotifier struct {
	notifyTransitionFunc func(ctx context.Context, req *entity.Request, actor *entity.User, action workflow.Trigger, vehicle *entity.Vehicle) []string
	calls                int
}

func (m *mockNotifier) NotifyTransition(ctx context.Context, req *entity.Request, actor *entity.User, action workflow.Trigger, vehicle *entity.Vehicle) []string {
	m.calls++
	if m.notifyTransitionFunc != nil {
		return m.notifyTransitionFunc(ctx, req, actor, action, vehicle)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Test fixtures

func testUser(id int64, role workflow.Role) *entity.User {
	dept := int64(1)
	return &entity.User{
		ID:           id,
		FullName:     "Test User",
		Role:         role,
		DepartmentID: &dept,
		IsActive:     true,
	}
}

func testVehicle(id int64, status string) *entity.Vehicle {
	driverID := int64(99)
	return &entity.Vehicle{
		ID:             id,
		LicensePlate:   "AA-1234",
		Model:          "Hiace",
		Status:         status,
		FuelEfficiency: 10,
		DriverID:       &driverID,
	}
}

func testRequest(kind workflow.Kind, status workflow.State, step int) *entity.Request {
	role, _ := workflow.RoleAtStep(kind, step)
	return &entity.Request{
		ID:            1,
		Kind:          kind,
		RequesterID:   10,
		Status:        status,
		ApproverRole:  role,
		HierarchyStep: step,
		Version:       1,
	}
}
