package workflow

// Trigger represents an approver action that can cause a state transition
type Trigger string

const (
	TriggerForward Trigger = "forward"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
)

var validTriggers = map[Trigger]bool{
	TriggerForward: true,
	TriggerApprove: true,
	TriggerReject:  true,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is one of the defined approver actions
func (t Trigger) IsValid() bool {
	return validTriggers[t]
}
