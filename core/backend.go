package core

import (
	"context"

	"pkt.systems/glkbridge/schema"
)

// Backend drives one interpreter process and exposes its transcript.
//
// A Backend is owned by a single control goroutine; it is not safe for
// concurrent use. Close is the only way to interrupt a blocked Get or Send.
type Backend interface {
	// Get returns the output produced since the last call, one entry per window.
	Get(ctx context.Context) ([]string, error)
	// Send delivers player input and returns the resulting output.
	Send(ctx context.Context, text string) ([]string, error)
	// PromptKind reports what kind of input the interpreter is waiting for.
	PromptKind() schema.PromptKind
	// Close kills the interpreter and releases its pipes.
	Close() error
}

// Launcher starts interpreter backends.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (Backend, error)
}

// LaunchRequest describes an interpreter invocation.
type LaunchRequest struct {
	Interpreter    schema.InterpreterName
	Path           string
	Args           []string
	GameFile       string
	SavefilePrefix string
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, req LaunchRequest) (Backend, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, req LaunchRequest) (Backend, error) {
	return f(ctx, req)
}
