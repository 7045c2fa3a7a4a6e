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

const userColumns = `
	id, full_name, email, phone_number, role, department_id, is_active,
	created_at, updated_at`

// UserRepository implements port.ActorDirectory over the users table
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.ActorDirectory {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves one user
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = ?`

	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ActiveWithRole retrieves all active users holding the given role
func (r *UserRepository) ActiveWithRole(ctx context.Context, role workflow.Role) ([]*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE role = ? AND is_active = 1 ORDER BY full_name`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", role.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var phone sql.NullString

	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&phone,
		&user.Role,
		&user.DepartmentID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PhoneNumber = phone.String
	return &user, nil
}

// Verify interface compliance
var _ port.ActorDirectory = (*UserRepository)(nil)
