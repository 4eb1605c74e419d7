package glk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/schema"
)

const (
	commandTypeSpecialResponse = "specialresponse"
	responseFilerefPrompt      = "fileref_prompt"
)

// Command is an input event sent to the interpreter. Field order is the
// order the keys are written in.
type Command struct {
	Type     string `json:"type"`
	Gen      *int   `json:"gen,omitempty"`
	Response string `json:"response,omitempty"`
	Value    string `json:"value"`
	Window   *int   `json:"window,omitempty"`
}

// Encode builds the command answering prompt. Save file names are prefixed
// with savefilePrefix so sessions sharing a save directory do not collide.
func Encode(prompt Prompt, gen int, text string, savefilePrefix string) (Command, error) {
	switch p := prompt.(type) {
	case LinePrompt:
		return windowCommand(inputTypeLine, gen, text, p.WindowID), nil
	case CharPrompt:
		return windowCommand(inputTypeChar, gen, text, p.WindowID), nil
	case FilerefPrompt:
		return Command{
			Type:     commandTypeSpecialResponse,
			Response: responseFilerefPrompt,
			Value:    savefilePrefix + text,
		}, nil
	case nil:
		return Command{}, core.NewBackendError(core.BackendErrorNoPrompt, "encode", schema.ErrNoPromptActive)
	default:
		return Command{}, fmt.Errorf("unsupported prompt %T", prompt)
	}
}

func windowCommand(kind string, gen int, text string, window int) Command {
	return Command{
		Type:   kind,
		Gen:    &gen,
		Value:  text,
		Window: &window,
	}
}

// Bytes returns the compact JSON encoding of c.
func (c Command) Bytes() ([]byte, error) {
	return marshalCompact(c)
}

// marshalCompact encodes v without HTML escaping or a trailing newline.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// InitEvent is the handshake sent to interpreters that are not started with
// fixed metrics.
type InitEvent struct {
	Type    string   `json:"type"`
	Gen     int      `json:"gen"`
	Metrics Metrics  `json:"metrics"`
	Support []string `json:"support,omitempty"`
}

// Metrics describes the display size reported to the interpreter.
type Metrics struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewInitEvent builds the init handshake for a width x height display.
func NewInitEvent(width, height int) InitEvent {
	return InitEvent{
		Type:    "init",
		Gen:     0,
		Metrics: Metrics{Width: width, Height: height},
		Support: []string{"timer", "hyperlinks"},
	}
}
