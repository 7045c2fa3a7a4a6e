package workflow

// State represents a request's position in the approval lifecycle
type State string

const (
	StatePending   State = "pending"
	StateForwarded State = "forwarded"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateForwarded: true,
	StateApproved:  true,
	StateRejected:  true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
