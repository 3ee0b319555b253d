package flow

import (
	"errors"
	"fmt"
)

// ValidationError reports input the user can immediately correct. The flow
// stays on the same step and re-prompts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "flow: invalid input: " + e.Reason }

// Code labels the error for structured logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// StaleInputError reports an action token that does not match the user's
// current step, such as a confirm press after the flow already ended. Stale
// input never mutates state.
type StaleInputError struct {
	Step Step
}

func (e *StaleInputError) Error() string {
	return fmt.Sprintf("flow: stale input for step %s", e.Step)
}

// Code labels the error for structured logs.
func (e *StaleInputError) Code() string { return "STALE_INPUT" }

// NotFoundError reports a referenced entity that vanished mid-flow. The flow
// fails closed and the user must restart.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return "flow: " + e.What + " not found" }

// Code labels the error for structured logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// StoreError wraps an I/O failure against the ledger or state store. The
// flow's state is left where it was so the user can retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "flow: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// Code labels the error for structured logs.
func (e *StoreError) Code() string { return "STORE" }

// Recoverable reports whether the error was already answered with an in-place
// re-prompt or a neutral notice, meaning the handler should not fail the
// update.
func Recoverable(err error) bool {
	var ve *ValidationError
	var se *StaleInputError
	return errors.As(err, &ve) || errors.As(err, &se)
}
