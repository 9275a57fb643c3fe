package command

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommands is the cause of a ValidationError for an empty list.
	ErrNoCommands = errors.New("no commands provided")

	// ErrEvaluateDisabled is raised by evaluate unless it was explicitly allowed.
	ErrEvaluateDisabled = errors.New("evaluate is disabled (set engine.allow_evaluate to enable it)")
)

// ValidationError rejects a command list before any browser is opened.
type ValidationError struct {
	Index  int // entry index, -1 when the list itself is invalid
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("command %d: %s", e.Index+1, e.Reason)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ActionError is raised by a command during execution and aborts the run.
type ActionError struct {
	Step   int // 1-based
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
