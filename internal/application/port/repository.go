package port

import (
	"context"
	"time"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// RequestRepository defines persistence operations for Request records.
// UpdateTransition performs an optimistic compare-and-swap on the record's
// version column and fails with workflow.ErrConflict when a concurrent
// transition committed first.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error)
	UpdateTransition(ctx context.Context, req *entity.Request) error
	SetEstimate(ctx context.Context, kind workflow.Kind, id int64, distanceKm, pricePerLiter, fuelLiters, totalCost float64, estimatedVehicleID *int64) error
	SetMaintenanceDocs(ctx context.Context, id int64, letterPath, receiptPath string, totalCost float64) error
	MarkVehicleAssigned(ctx context.Context, id, vehicleID int64) error
	MarkTripCompleted(ctx context.Context, kind workflow.Kind, id int64) error
	ListForRole(ctx context.Context, kind workflow.Kind, role workflow.Role, status workflow.State) ([]*entity.Request, error)
	ListByRequester(ctx context.Context, kind workflow.Kind, requesterID int64) ([]*entity.Request, error)
}

// VehicleRepository defines persistence operations for Vehicle records.
// Reserve is a guarded single-row update (available to in_use) and fails
// with workflow.ErrResourceUnavailable when the vehicle is not available.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entity.Vehicle) error
	GetByID(ctx context.Context, id int64) (*entity.Vehicle, error)
	GetByDriverID(ctx context.Context, driverID int64) (*entity.Vehicle, error)
	ListAvailable(ctx context.Context) ([]*entity.Vehicle, error)
	Reserve(ctx context.Context, id int64) error
	Release(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	AssignDriver(ctx context.Context, vehicleID, driverID int64) error
	UnassignDriver(ctx context.Context, vehicleID int64) error
	AddKilometers(ctx context.Context, id int64, kilometers float64) error
	SetLastServiceKilometers(ctx context.Context, id int64, kilometers float64) error
}

// AuditLogRepository defines append-only persistence for audit entries.
// Entries are never updated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	ListByRequest(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error)
}

// NotificationRepository defines persistence operations for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// KilometerLogRepository defines persistence for monthly kilometer logs
type KilometerLogRepository interface {
	Create(ctx context.Context, log *entity.MonthlyKilometerLog) error
	ListByVehicle(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error)
	ListByMonthRange(ctx context.Context, fromMonth, toMonth string) ([]*entity.MonthlyKilometerLog, error)
}

// TransactionManager provides transactional execution of repository calls.
// The function receives a context carrying the transaction; repository
// calls made with it join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
