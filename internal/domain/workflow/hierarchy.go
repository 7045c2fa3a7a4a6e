package workflow

// Kind identifies the request variant driving a workflow
type Kind string

const (
	KindTrip         Kind = "trip"
	KindHighCostTrip Kind = "highcost_trip"
	KindMaintenance  Kind = "maintenance"
	KindRefueling    Kind = "refueling"
)

var validKinds = map[Kind]bool{
	KindTrip:         true,
	KindHighCostTrip: true,
	KindMaintenance:  true,
	KindRefueling:    true,
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a known request kind
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// hierarchies holds the ordered approver chain per request kind. A request's
// step index addresses this slice, so a role may legally appear twice: the
// ordinary-trip chain ends with a one-shot informational hop back to the
// transport manager after finance review, and the step index keeps that hop
// from ever being re-entered.
var hierarchies = map[Kind][]Role{
	KindTrip: {
		RoleDepartmentManager,
		RoleTransportManager,
		RoleCEO,
		RoleFinanceManager,
		RoleTransportManager,
	},
	KindHighCostTrip: {
		RoleCEO,
		RoleGeneralSystem,
		RoleTransportManager,
		RoleBudgetManager,
	},
	KindMaintenance: {
		RoleTransportManager,
		RoleGeneralSystem,
		RoleCEO,
		RoleBudgetManager,
	},
	KindRefueling: {
		RoleTransportManager,
		RoleGeneralSystem,
		RoleCEO,
		RoleBudgetManager,
	},
}

// terminalApprovers maps each kind to the single role whose approve action
// moves a request to the approved state.
var terminalApprovers = map[Kind]Role{
	KindTrip:         RoleTransportManager,
	KindHighCostTrip: RoleBudgetManager,
	KindMaintenance:  RoleBudgetManager,
	KindRefueling:    RoleBudgetManager,
}

// FirstRole returns the role that must act first on a newly created request
// of the given kind.
func FirstRole(kind Kind) (Role, bool) {
	chain, ok := hierarchies[kind]
	if !ok || len(chain) == 0 {
		return "", false
	}
	return chain[0], true
}

// RoleAtStep returns the role holding the request at the given hierarchy
// step. Reports false if the step is out of range for the kind.
func RoleAtStep(kind Kind, step int) (Role, bool) {
	chain, ok := hierarchies[kind]
	if !ok || step < 0 || step >= len(chain) {
		return "", false
	}
	return chain[step], true
}

// NextRole resolves the role that receives the request when the holder of
// the given step forwards it. Reports false when the hierarchy is exhausted
// and no further approver exists.
func NextRole(kind Kind, step int) (Role, bool) {
	return RoleAtStep(kind, step+1)
}

// TerminalApprover returns the role whose approve action is terminal for
// the kind.
func TerminalApprover(kind Kind) (Role, bool) {
	role, ok := terminalApprovers[kind]
	return role, ok
}

// ChainLength returns the number of hierarchy steps for the kind.
func ChainLength(kind Kind) int {
	return len(hierarchies[kind])
}
