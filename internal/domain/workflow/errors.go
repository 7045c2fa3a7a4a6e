package workflow

import "errors"

var (
	// ErrUnauthorized is returned when the actor's role does not match the
	// request's current approver role, or a driver-scoped operation is
	// attempted by someone other than the bound driver
	ErrUnauthorized = errors.New("actor not authorized for this step")

	// ErrForbidden is returned when the role matches but a scope restriction
	// fails, such as a department manager acting outside their department
	ErrForbidden = errors.New("action forbidden for this actor")

	// ErrValidation is returned when a required input is missing or malformed
	ErrValidation = errors.New("invalid action input")

	// ErrPreconditionMissing is returned when a required prior step has not
	// been completed, such as forwarding before cost estimation
	ErrPreconditionMissing = errors.New("required prior step not completed")

	// ErrResourceUnavailable is returned when the requested vehicle is not
	// available for reservation
	ErrResourceUnavailable = errors.New("vehicle not available")

	// ErrNoFurtherApprover is returned when a forward is attempted past the
	// end of the kind's approver hierarchy
	ErrNoFurtherApprover = errors.New("no further approver available")

	// ErrAlreadyTerminal is returned when an action is attempted on a
	// request that has already been approved or rejected
	ErrAlreadyTerminal = errors.New("request already in a terminal state")

	// ErrConflict is returned when a concurrent transition on the same
	// request or vehicle committed first
	ErrConflict = errors.New("concurrent transition conflict")

	// ErrInvalidTransition is returned when a trigger is not permitted in
	// the current state
	ErrInvalidTransition = errors.New("invalid state transition")
)
