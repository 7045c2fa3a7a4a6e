package workflow

// Role identifies an organizational role that can hold or act on a request
type Role string

const (
	RoleEmployee          Role = "employee"
	RoleDepartmentManager Role = "department_manager"
	RoleFinanceManager    Role = "finance_manager"
	RoleTransportManager  Role = "transport_manager"
	RoleCEO               Role = "ceo"
	RoleDriver            Role = "driver"
	RoleSystemAdmin       Role = "system_admin"
	RoleGeneralSystem     Role = "general_system"
	RoleBudgetManager     Role = "budget_manager"
)

var validRoles = map[Role]bool{
	RoleEmployee:          true,
	RoleDepartmentManager: true,
	RoleFinanceManager:    true,
	RoleTransportManager:  true,
	RoleCEO:               true,
	RoleDriver:            true,
	RoleSystemAdmin:       true,
	RoleGeneralSystem:     true,
	RoleBudgetManager:     true,
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known organizational role
func (r Role) IsValid() bool {
	return validRoles[r]
}
