package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateForwarded, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"rejected", StateRejected, true},
		{"unknown state", State("CANCELLED"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_IsValid(t *testing.T) {
	if !TriggerForward.IsValid() {
		t.Error("TriggerForward should be valid")
	}
	if Trigger("escalate").IsValid() {
		t.Error("unknown trigger should not be valid")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateMachine_Fire(t *testing.T) {
	machine := BuildApprovalStateMachine(StatePending)

	if err := machine.Fire(context.Background(), TriggerForward); err != nil {
		t.Fatalf("Fire(forward) from pending returned error: %v", err)
	}
	if machine.State() != StateForwarded {
		t.Errorf("state = %s, want %s", machine.State(), StateForwarded)
	}

	// forwarded may be forwarded again along the chain
	if err := machine.Fire(context.Background(), TriggerForward); err != nil {
		t.Fatalf("Fire(forward) from forwarded returned error: %v", err)
	}

	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire(approve) from forwarded returned error: %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("state = %s, want %s", machine.State(), StateApproved)
	}
}

func TestStateMachine_TerminalStatesAbsorb(t *testing.T) {
	for _, terminal := range []State{StateApproved, StateRejected} {
		machine := BuildApprovalStateMachine(terminal)

		for _, trigger := range []Trigger{TriggerForward, TriggerApprove, TriggerReject} {
			err := machine.Fire(context.Background(), trigger)
			if !errors.Is(err, ErrAlreadyTerminal) {
				t.Errorf("Fire(%s) from %s: error = %v, want ErrAlreadyTerminal", trigger, terminal, err)
			}
			if machine.State() != terminal {
				t.Errorf("state changed from terminal %s to %s", terminal, machine.State())
			}
		}
	}
}

func TestStateMachine_RejectFromAnyActionableState(t *testing.T) {
	for _, from := range []State{StatePending, StateForwarded} {
		machine := BuildApprovalStateMachine(from)

		if err := machine.Fire(context.Background(), TriggerReject); err != nil {
			t.Fatalf("Fire(reject) from %s returned error: %v", from, err)
		}
		if machine.State() != StateRejected {
			t.Errorf("state = %s, want %s", machine.State(), StateRejected)
		}
	}
}

func TestStateMachine_GuardRejectsTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool { return false })

	machine := builder.Build(StatePending)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
	if machine.State() != StatePending {
		t.Errorf("guard failure must not change state, got %s", machine.State())
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := BuildApprovalStateMachine(StatePending)

	if !machine.CanFire(TriggerForward) {
		t.Error("CanFire(forward) from pending should be true")
	}
	if machine.CanFire(Trigger("escalate")) {
		t.Error("CanFire(escalate) should be false")
	}

	approved := BuildApprovalStateMachine(StateApproved)
	if approved.CanFire(TriggerForward) {
		t.Error("CanFire(forward) from approved should be false")
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	machine := BuildApprovalStateMachine(StateForwarded)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 3 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 3", len(triggers))
	}

	terminal := BuildApprovalStateMachine(StateRejected)
	if got := terminal.PermittedTriggers(); len(got) != 0 {
		t.Errorf("terminal state should permit no triggers, got %v", got)
	}
}

func TestBuilder_ProducesIndependentMachines(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).Permit(TriggerForward, StateForwarded)

	first := builder.Build(StatePending)
	second := builder.Build(StatePending)

	if err := first.Fire(context.Background(), TriggerForward); err != nil {
		t.Fatalf("Fire() returned error: %v", err)
	}

	if second.State() != StatePending {
		t.Error("firing one machine must not advance another built from the same builder")
	}
}
