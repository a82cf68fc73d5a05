package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a stage failure for retry and propagation policy.
type ErrorKind string

const (
	// ErrorKindTransient covers timeouts and momentary unavailability;
	// the stage client retries these with backoff.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindInvalidInput covers malformed series or config; never
	// retried, fails the run or segment immediately.
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	// ErrorKindContractViolation marks a stage returning data that
	// breaks the stage contract. Treated as a bug signal: never
	// retried, always surfaced in diagnostics with full detail.
	ErrorKindContractViolation ErrorKind = "contract_violation"
	// ErrorKindDeadlineExceeded marks a per-call or request budget
	// exhaustion.
	ErrorKindDeadlineExceeded ErrorKind = "deadline_exceeded"
	// ErrorKindUnavailable marks a stage unreachable after retries.
	ErrorKindUnavailable ErrorKind = "unavailable"
	// ErrorKindInternal covers stage-reported processing failures.
	ErrorKindInternal ErrorKind = "internal"
)

// StageError is the failure arm of a stage invocation result.
type StageError struct {
	Stage   StageName `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

// NewStageError builds a StageError for the given stage and kind.
func NewStageError(stage StageName, kind ErrorKind, format string, args ...interface{}) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Retryable reports whether the stage client may retry the call.
// Only transient kinds qualify; invalid input and contract breaches
// would fail identically on every attempt.
func (e *StageError) Retryable() bool {
	return e.Kind == ErrorKindTransient
}

// AsStageError unwraps err into a *StageError when one is present.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
