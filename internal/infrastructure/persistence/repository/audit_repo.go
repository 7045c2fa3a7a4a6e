package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/fleetops/tms/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditLogRepository implements port.AuditLogRepository. The table is
// append-only; nothing here updates or deletes rows.
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) port.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit entry
func (r *AuditLogRepository) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (kind, request_id, actor_id, action, remarks, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.Kind,
		entry.RequestID,
		entry.ActorID,
		entry.Action,
		entry.Remarks,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.Int64("request_id", entry.RequestID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByRequest retrieves a request's audit trail in action order
func (r *AuditLogRepository) ListByRequest(ctx context.Context, kind workflow.Kind, requestID int64) ([]*entity.AuditLogEntry, error) {
	query := `
		SELECT id, kind, request_id, actor_id, action, remarks, timestamp
		FROM audit_logs
		WHERE kind = ? AND request_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, kind, requestID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var entry entity.AuditLogEntry
		var remarks sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.Kind,
			&entry.RequestID,
			&entry.ActorID,
			&entry.Action,
			&remarks,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Remarks = remarks.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
