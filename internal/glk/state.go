// Package glk implements the RemGlk streaming JSON window protocol: the
// window/prompt state machine, command encoding and a backend that drives
// an interpreter speaking it.
package glk

import (
	"encoding/json"
	"strings"

	"pkt.systems/pslog"
)

const (
	interpreterErrorPrefix  = "INTERPRETER ERROR: "
	interpreterErrorDefault = "ERROR MESSAGE NOT SET"
	unknownUpdatePrefix     = "WARNING: UNKNOWN UPDATE TYPE "
	malformedUpdatePrefix   = "WARNING: MALFORMED UPDATE "
)

// SaveFilePrompt is appended to the transcript when a file name is requested.
const SaveFilePrompt = "ENTER SAVE FILE NAME"

// Window is a region of interpreter output with its accumulated text.
type Window struct {
	ID          int
	Type        string
	ContentText string
}

// State tracks windows, the pending prompt and the generation counter.
// It is mutated only by the goroutine calling Decode.
type State struct {
	windows []Window
	prompt  Prompt
	gen     int
	log     pslog.Logger
}

// NewState constructs an empty state. logger may be nil.
func NewState(logger pslog.Logger) *State {
	return &State{log: logger}
}

// Windows returns a copy of the window list in protocol order.
func (s *State) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Prompt returns the pending input request, or nil.
func (s *State) Prompt() Prompt {
	return s.prompt
}

// Generation returns the last generation number seen.
func (s *State) Generation() int {
	return s.gen
}

// Decode parses a frame and applies it. A frame that is valid JSON but not
// an update is rendered as a warning and leaves the state untouched.
func (s *State) Decode(frame json.RawMessage, echoFilter string) []string {
	var update Update
	if err := json.Unmarshal(frame, &update); err != nil {
		if s.log != nil {
			s.log.Warn("glk update malformed", "err", err, "frame", previewText(string(frame), 200))
		}
		return []string{malformedUpdatePrefix + string(frame)}
	}
	return s.Apply(update, echoFilter)
}

// Apply merges an update into the state and returns each window's text in
// window order. Fields absent from the update keep their previous values.
// Error updates are display-only.
func (s *State) Apply(update Update, echoFilter string) []string {
	if update.Type == updateTypeError {
		message := interpreterErrorDefault
		if update.Message != nil {
			message = *update.Message
		}
		return []string{interpreterErrorPrefix + message}
	}

	if update.Windows != nil {
		s.replaceWindows(*update.Windows)
	}
	if update.Gen != nil {
		s.gen = *update.Gen
	}
	switch {
	case update.Input != nil:
		s.prompt = s.promptFromInput(*update.Input)
	case update.SpecialInput != nil:
		s.prompt = s.promptFromSpecial(*update.SpecialInput)
	}

	texts := make(map[int]string, len(update.Content))
	for _, content := range update.Content {
		text, ok := s.render(content, echoFilter)
		if !ok {
			continue
		}
		texts[content.ID] = text
	}
	out := make([]string, 0, len(s.windows)+1)
	for i := range s.windows {
		if text, ok := texts[s.windows[i].ID]; ok {
			s.windows[i].ContentText = text
		}
		out = append(out, s.windows[i].ContentText)
	}
	if update.SpecialInput != nil {
		out = append(out, SaveFilePrompt)
	}
	return out
}

func (s *State) replaceWindows(infos []WindowInfo) {
	previous := make(map[int]string, len(s.windows))
	for _, window := range s.windows {
		previous[window.ID] = window.ContentText
	}
	windows := make([]Window, 0, len(infos))
	for _, info := range infos {
		windows = append(windows, Window{
			ID:          info.ID,
			Type:        info.Type,
			ContentText: previous[info.ID],
		})
	}
	s.windows = windows
}

// promptFromInput uses the first request; an empty list means no input is
// expected.
func (s *State) promptFromInput(requests []InputRequest) Prompt {
	if len(requests) == 0 {
		return nil
	}
	if len(requests) > 1 && s.log != nil {
		s.log.Debug("glk multiple input requests", "count", len(requests), "used", requests[0].ID)
	}
	request := requests[0]
	switch request.Type {
	case inputTypeLine:
		return LinePrompt{WindowID: request.ID}
	case inputTypeChar:
		return CharPrompt{WindowID: request.ID}
	default:
		if s.log != nil {
			s.log.Warn("glk input type unsupported", "type", request.Type, "window", request.ID)
		}
		return nil
	}
}

func (s *State) promptFromSpecial(special SpecialInput) Prompt {
	if special.Type == specialTypeFileref {
		return FilerefPrompt{}
	}
	if s.log != nil {
		s.log.Warn("glk special input unsupported", "type", special.Type)
	}
	return nil
}

// render returns the replacement text for a content entry. Clear entries
// report false and leave the window text as it was.
func (s *State) render(content ContentUpdate, echoFilter string) (string, bool) {
	switch content.shape {
	case shapeLines:
		return renderLines(content.Lines, ""), true
	case shapeText:
		return renderLines(content.Text, echoFilter), true
	case shapeClear:
		return "", false
	default:
		if s.log != nil {
			s.log.Warn("glk content shape unknown", "window", content.ID)
		}
		return unknownUpdatePrefix + string(content.Raw), true
	}
}

// renderLines joins each line's spans into one output line. Spans styled as
// input whose text equals echoFilter are dropped. A line with no spans left,
// including one that had none, produces no output.
func renderLines(lines []*Line, echoFilter string) string {
	var b strings.Builder
	for _, line := range lines {
		if line == nil || line.Content == nil {
			continue
		}
		kept := 0
		var text strings.Builder
		for _, span := range *line.Content {
			if echoFilter != "" && span.Style == spanStyleInput && span.Text == echoFilter {
				continue
			}
			kept++
			text.WriteString(strings.ReplaceAll(span.Text, "\n", " "))
		}
		if kept == 0 {
			continue
		}
		b.WriteString(text.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func previewText(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max]
}
