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

const requestColumns = `
	id, kind, requester_id, status, approver_role, hierarchy_step, version,
	destination, reason, start_day, return_day, rejection_message,
	vehicle_id, requesters_car_id, estimated_vehicle_id, vehicle_assigned,
	estimated_distance_km, fuel_price_per_liter, fuel_needed_liters, total_cost,
	maintenance_letter_path, maintenance_receipt_path, maintenance_total_cost,
	trip_completed, created_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			kind, requester_id, status, approver_role, hierarchy_step, version,
			destination, reason, start_day, return_day,
			requesters_car_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Kind,
		req.RequesterID,
		req.Status,
		req.ApproverRole,
		req.HierarchyStep,
		req.Version,
		req.Destination,
		req.Reason,
		req.StartDay,
		req.ReturnDay,
		req.RequestersCarID,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("kind", req.Kind.String()), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves one request by kind and id
func (r *RequestRepository) GetByID(ctx context.Context, kind workflow.Kind, id int64) (*entity.Request, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE kind = ? AND id = ?`

	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, kind, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// UpdateTransition persists a state transition with an optimistic version
// check. A concurrent transition that committed first leaves zero rows
// matching, which surfaces as workflow.ErrConflict.
func (r *RequestRepository) UpdateTransition(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests
		SET status = ?, approver_role = ?, hierarchy_step = ?,
			rejection_message = ?, vehicle_id = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Status,
		req.ApproverRole,
		req.HierarchyStep,
		req.RejectionMessage,
		req.VehicleID,
		time.Now(),
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update request transition", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d was modified concurrently", workflow.ErrConflict, req.ID)
	}

	req.Version++
	return nil
}

// SetEstimate records the transport manager's cost estimation
func (r *RequestRepository) SetEstimate(ctx context.Context, kind workflow.Kind, id int64, distanceKm, pricePerLiter, fuelLiters, totalCost float64, estimatedVehicleID *int64) error {
	query := `
		UPDATE requests
		SET estimated_distance_km = ?, fuel_price_per_liter = ?,
			fuel_needed_liters = ?, total_cost = ?,
			estimated_vehicle_id = ?, updated_at = ?
		WHERE kind = ? AND id = ?
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		distanceKm, pricePerLiter, fuelLiters, totalCost,
		estimatedVehicleID, time.Now(), kind, id,
	)
	if err != nil {
		r.logger.Error("Failed to set estimate", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set estimate: %w", err)
	}
	return nil
}

// SetMaintenanceDocs records the stored document paths and the total cost
func (r *RequestRepository) SetMaintenanceDocs(ctx context.Context, id int64, letterPath, receiptPath string, totalCost float64) error {
	query := `
		UPDATE requests
		SET maintenance_letter_path = ?, maintenance_receipt_path = ?,
			maintenance_total_cost = ?, updated_at = ?
		WHERE kind = ? AND id = ?
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		letterPath, receiptPath, totalCost, time.Now(), workflow.KindMaintenance, id,
	)
	if err != nil {
		r.logger.Error("Failed to set maintenance documents", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set maintenance documents: %w", err)
	}
	return nil
}

// MarkVehicleAssigned flips the one-shot assignment flag. The guarded
// update makes concurrent dispatches race safely: the loser matches zero
// rows and gets workflow.ErrConflict.
func (r *RequestRepository) MarkVehicleAssigned(ctx context.Context, id, vehicleID int64) error {
	query := `
		UPDATE requests
		SET vehicle_id = ?, vehicle_assigned = 1, updated_at = ?
		WHERE id = ? AND vehicle_assigned = 0
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, vehicleID, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark vehicle assigned", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark vehicle assigned: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d already has a vehicle assigned", workflow.ErrConflict, id)
	}
	return nil
}

// MarkTripCompleted flips the completion flag exactly once
func (r *RequestRepository) MarkTripCompleted(ctx context.Context, kind workflow.Kind, id int64) error {
	query := `
		UPDATE requests
		SET trip_completed = 1, updated_at = ?
		WHERE kind = ? AND id = ? AND trip_completed = 0
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, time.Now(), kind, id)
	if err != nil {
		r.logger.Error("Failed to mark trip completed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark trip completed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d is already completed", workflow.ErrConflict, id)
	}
	return nil
}

// ListForRole retrieves requests of one kind awaiting the given role
func (r *RequestRepository) ListForRole(ctx context.Context, kind workflow.Kind, role workflow.Role, status workflow.State) ([]*entity.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE kind = ? AND approver_role = ? AND status = ?
		ORDER BY created_at ASC`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, kind, role, status)
	if err != nil {
		r.logger.Error("Failed to list requests for role", zap.String("role", role.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListByRequester retrieves one requester's submissions, newest first
func (r *RequestRepository) ListByRequester(ctx context.Context, kind workflow.Kind, requesterID int64) ([]*entity.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE kind = ? AND requester_id = ?
		ORDER BY created_at DESC`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, kind, requesterID)
	if err != nil {
		r.logger.Error("Failed to list requests by requester", zap.Int64("requester_id", requesterID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	var (
		startDay         sql.NullTime
		returnDay        sql.NullTime
		destination      sql.NullString
		reason           sql.NullString
		rejectionMessage sql.NullString
		letterPath       sql.NullString
		receiptPath      sql.NullString
	)

	err := row.Scan(
		&req.ID,
		&req.Kind,
		&req.RequesterID,
		&req.Status,
		&req.ApproverRole,
		&req.HierarchyStep,
		&req.Version,
		&destination,
		&reason,
		&startDay,
		&returnDay,
		&rejectionMessage,
		&req.VehicleID,
		&req.RequestersCarID,
		&req.EstimatedVehicleID,
		&req.VehicleAssigned,
		&req.EstimatedDistanceKm,
		&req.FuelPricePerLiter,
		&req.FuelNeededLiters,
		&req.TotalCost,
		&letterPath,
		&receiptPath,
		&req.MaintenanceTotalCost,
		&req.TripCompleted,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Destination = destination.String
	req.Reason = reason.String
	req.RejectionMessage = rejectionMessage.String
	req.MaintenanceLetterPath = letterPath.String
	req.MaintenanceReceiptPath = receiptPath.String
	if startDay.Valid {
		req.StartDay = &startDay.Time
	}
	if returnDay.Valid {
		req.ReturnDay = &returnDay.Time
	}

	return &req, nil
}

func collectRequests(rows *sql.Rows) ([]*entity.Request, error) {
	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
