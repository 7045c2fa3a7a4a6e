package entity

import (
	"time"

	"github.com/fleetops/tms/internal/domain/workflow"
)

// User is an organizational actor that submits requests, acts on approval
// steps, or drives vehicles. Identity and session management live outside
// this system; the engine only consumes role and department scoping.
type User struct {
	ID           int64         `json:"id"`
	FullName     string        `json:"full_name"`
	Email        string        `json:"email"`
	PhoneNumber  string        `json:"phone_number,omitempty"`
	Role         workflow.Role `json:"role"`
	DepartmentID *int64        `json:"department_id,omitempty"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Department groups employees under a single department manager.
type Department struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

// SameDepartment reports whether both users belong to the same department.
func (u *User) SameDepartment(other *User) bool {
	if u.DepartmentID == nil || other.DepartmentID == nil {
		return false
	}
	return *u.DepartmentID == *other.DepartmentID
}
