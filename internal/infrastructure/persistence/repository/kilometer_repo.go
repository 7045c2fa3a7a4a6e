package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/fleetops/tms/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// KilometerLogRepository implements port.KilometerLogRepository
type KilometerLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewKilometerLogRepository creates a new kilometer log repository
func NewKilometerLogRepository(db *sql.DB, logger *zap.Logger) port.KilometerLogRepository {
	return &KilometerLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts one monthly mileage record. The (vehicle, month) pair is
// unique; a duplicate month surfaces as workflow.ErrConflict.
func (r *KilometerLogRepository) Create(ctx context.Context, log *entity.MonthlyKilometerLog) error {
	query := `
		INSERT INTO kilometer_logs (vehicle_id, month, kilometers_driven, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.VehicleID,
		log.Month,
		log.KilometersDriven,
		log.RecordedByID,
		log.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: vehicle %d already has a record for %s", workflow.ErrConflict, log.VehicleID, log.Month)
		}
		r.logger.Error("Failed to create kilometer log",
			zap.Int64("vehicle_id", log.VehicleID),
			zap.String("month", log.Month),
			zap.Error(err))
		return fmt.Errorf("failed to create kilometer log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// ListByVehicle retrieves a vehicle's mileage records, most recent month first
func (r *KilometerLogRepository) ListByVehicle(ctx context.Context, vehicleID int64) ([]*entity.MonthlyKilometerLog, error) {
	query := `
		SELECT id, vehicle_id, month, kilometers_driven, recorded_by, created_at
		FROM kilometer_logs
		WHERE vehicle_id = ?
		ORDER BY month DESC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, vehicleID)
	if err != nil {
		r.logger.Error("Failed to list kilometer logs", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list kilometer logs: %w", err)
	}
	defer rows.Close()

	return collectKilometerLogs(rows)
}

// ListByMonthRange retrieves all mileage records between two months
// inclusive, ordered for reporting.
func (r *KilometerLogRepository) ListByMonthRange(ctx context.Context, fromMonth, toMonth string) ([]*entity.MonthlyKilometerLog, error) {
	query := `
		SELECT id, vehicle_id, month, kilometers_driven, recorded_by, created_at
		FROM kilometer_logs
		WHERE month >= ? AND month <= ?
		ORDER BY vehicle_id ASC, month ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, fromMonth, toMonth)
	if err != nil {
		r.logger.Error("Failed to list kilometer logs by range",
			zap.String("from", fromMonth), zap.String("to", toMonth), zap.Error(err))
		return nil, fmt.Errorf("failed to list kilometer logs: %w", err)
	}
	defer rows.Close()

	return collectKilometerLogs(rows)
}

func collectKilometerLogs(rows *sql.Rows) ([]*entity.MonthlyKilometerLog, error) {
	var logs []*entity.MonthlyKilometerLog
	for rows.Next() {
		var log entity.MonthlyKilometerLog
		if err := rows.Scan(
			&log.ID,
			&log.VehicleID,
			&log.Month,
			&log.KilometersDriven,
			&log.RecordedByID,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan kilometer log: %w", err)
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

// Verify interface compliance
var _ port.KilometerLogRepository = (*KilometerLogRepository)(nil)
