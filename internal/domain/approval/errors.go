package approval

import "errors"

var (
	// ErrValidation is returned for missing or malformed input
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when a workflow or request does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned on a role mismatch or ownership violation
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyDecided is returned when the current step already has an approval
	ErrAlreadyDecided = errors.New("step already decided")

	// ErrAlreadyFinalized is returned when the request status is no longer pending
	ErrAlreadyFinalized = errors.New("request already finalized")

	// ErrInvalidStep is returned when the current step has no matching
	// workflow step (defensive; should be unreachable given invariants)
	ErrInvalidStep = errors.New("current step out of range")

	// ErrConcurrencyConflict is returned when a conditional update lost the
	// race. Callers may retry after re-reading current state.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
)
