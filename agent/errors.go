package agent

import "fmt"

type ErrorCode string

const (
	ErrorNoRule    ErrorCode = "NO_RULE"
	ErrorInterpret ErrorCode = "INTERPRET_FAILED"
	ErrorPlan      ErrorCode = "PLAN_FAILED"
	ErrorPanic     ErrorCode = "PANIC"
)

// Error is a turn fault. The orchestrator rolls the turn back when one
// occurs and answers with an apology instead.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("agent: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("agent: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
