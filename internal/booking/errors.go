package booking

import "fmt"

// ValidationError reports bad input shape or values. Detected before any
// persistence call, so a rejected mutation has zero side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing or unresolvable entity.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: not found", e.Collection, e.ID)
}

// ConflictError reports a date overlap with an existing reservation on the
// same unit.
type ConflictError struct {
	UnitID   string
	CheckIn  Date
	CheckOut Date
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unit %s already reserved within [%s, %s)", e.UnitID, e.CheckIn, e.CheckOut)
}

// ConstraintError reports a delete blocked by a referential constraint.
type ConstraintError struct {
	Reason string
}

func (e *ConstraintError) Error() string { return e.Reason }

// PersistenceError wraps a provider read/write failure. The store never
// retries; retry policy belongs to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
