package glk

import "pkt.systems/glkbridge/schema"

// Prompt is the input request currently pending. A nil Prompt means the
// interpreter has not asked for input yet.
//
// The concrete types are LinePrompt, CharPrompt and FilerefPrompt.
type Prompt interface {
	Kind() schema.PromptKind
	isPrompt()
}

// LinePrompt requests a full line of text for a window.
type LinePrompt struct {
	WindowID int
}

// CharPrompt requests a single keypress for a window.
type CharPrompt struct {
	WindowID int
}

// FilerefPrompt requests a save or restore file name.
type FilerefPrompt struct{}

// Kind implements Prompt.
func (LinePrompt) Kind() schema.PromptKind { return schema.PromptLine }

// Kind implements Prompt.
func (CharPrompt) Kind() schema.PromptKind { return schema.PromptChar }

// Kind implements Prompt.
func (FilerefPrompt) Kind() schema.PromptKind { return schema.PromptFileref }

func (LinePrompt) isPrompt()    {}
func (CharPrompt) isPrompt()    {}
func (FilerefPrompt) isPrompt() {}

// PromptKindOf maps p to its kind, reporting none for a nil prompt.
func PromptKindOf(p Prompt) schema.PromptKind {
	if p == nil {
		return schema.PromptNone
	}
	return p.Kind()
}
