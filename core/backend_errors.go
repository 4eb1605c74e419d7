package core

import (
	"errors"
	"fmt"
)

// BackendErrorKind classifies backend failures so callers can decide whether
// the session survives.
type BackendErrorKind string

const (
	// BackendErrorLaunch indicates the interpreter could not be started.
	BackendErrorLaunch BackendErrorKind = "launch"
	// BackendErrorCommunication indicates a broken pipe or I/O failure.
	BackendErrorCommunication BackendErrorKind = "communication"
	// BackendErrorFrame indicates the output stream lost JSON framing.
	BackendErrorFrame BackendErrorKind = "frame"
	// BackendErrorNoPrompt indicates input was sent with no prompt pending.
	BackendErrorNoPrompt BackendErrorKind = "no_prompt"
)

// BackendError wraps backend failures with a stable classification.
type BackendError struct {
	Kind BackendErrorKind
	Op   string
	Err  error
}

// NewBackendError constructs a classified backend error.
func NewBackendError(kind BackendErrorKind, op string, err error) *BackendError {
	return &BackendError{Kind: kind, Op: op, Err: err}
}

func (e *BackendError) Error() string {
	if e == nil {
		return "backend error"
	}
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("backend %s failed", e.Op)
	}
	return "backend error"
}

func (e *BackendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is a BackendError of the given kind.
func IsKind(err error, kind BackendErrorKind) bool {
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		return false
	}
	return backendErr.Kind == kind
}

// IsFatal reports whether err requires the caller to discard the backend.
func IsFatal(err error) bool {
	return IsKind(err, BackendErrorLaunch) ||
		IsKind(err, BackendErrorCommunication) ||
		IsKind(err, BackendErrorFrame)
}
