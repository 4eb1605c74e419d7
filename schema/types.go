package schema

// SessionID identifies a chat session owning one interpreter backend.
type SessionID string

// StoryName is the user-facing name of a configured game.
type StoryName string

// InterpreterName identifies a configured interpreter.
type InterpreterName string

// Protocol selects the wire protocol spoken by an interpreter.
type Protocol string

const (
	// ProtocolRaw is an unstructured terminal byte stream (dumb frotz style).
	ProtocolRaw Protocol = "raw"
	// ProtocolGlk is the RemGlk streaming JSON window protocol.
	ProtocolGlk Protocol = "glk"
)

// Story describes a playable game file.
type Story struct {
	Name        StoryName
	File        string
	Interpreter InterpreterName
}
