package schema

import "errors"

var (
	// ErrNoPromptActive indicates input was sent while the interpreter was not waiting for any.
	ErrNoPromptActive = errors.New("no prompt active")
	// ErrBackendClosed indicates the backend was already torn down.
	ErrBackendClosed = errors.New("backend closed")
	// ErrStoryNotFound indicates the requested story is not configured.
	ErrStoryNotFound = errors.New("story not found")
	// ErrInterpreterNotFound indicates the requested interpreter is not configured.
	ErrInterpreterNotFound = errors.New("interpreter not found")
	// ErrUnsupportedProtocol indicates an interpreter protocol with no adapter.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	// ErrSessionNotFound indicates no backend is registered for the session.
	ErrSessionNotFound = errors.New("session not found")
)
