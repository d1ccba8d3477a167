// Package billing holds the ledger/invoice engine shared by order and
// purchase bills: line pricing, size allocation, bill aggregation,
// overhead distribution, and the payment ledger. Everything here is
// synchronous pure arithmetic over an in-memory bill aggregate.
package billing

import "fmt"

// ValidationError is a caller-recoverable rejection of one operation.
// It names the single blocking field so collaborators can surface a
// precise message instead of a generic failure. The operation that
// produced it has not mutated any state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvariantViolation signals a state that should be unreachable if the
// engine is correct: a defect, not a user error.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Detail
}
