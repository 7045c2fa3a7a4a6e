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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			recipient_id, kind, request_id, vehicle_id, notification_type,
			title, message, priority, action_required, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID,
		n.Kind,
		n.RequestID,
		n.VehicleID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
		n.ActionRequired,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("recipient_id", n.RecipientID),
			zap.String("type", n.Type),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListByRecipient retrieves a recipient's notifications, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, request_id, vehicle_id, notification_type,
			title, message, priority, action_required, is_read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var kind sql.NullString
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&kind,
			&n.RequestID,
			&n.VehicleID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Priority,
			&n.ActionRequired,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if kind.Valid {
			n.Kind = workflow.Kind(kind.String)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the recipient's unread count
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`

	var count int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, recipientID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read, scoped to the recipient
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, id, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of a recipient's notifications read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	query := `UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark all notifications read", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// DeleteOlderThan removes notifications created before the cutoff
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE created_at < ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete old notifications", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	return result.RowsAffected()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
