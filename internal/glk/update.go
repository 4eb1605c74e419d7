package glk

import (
	"encoding/json"
	"fmt"
)

// Wire types for RemGlk output. Pointer fields distinguish a key that is
// absent from one that is present with a zero value.

const (
	updateTypeError    = "error"
	inputTypeLine      = "line"
	inputTypeChar      = "char"
	specialTypeFileref = "fileref_prompt"
	spanStyleInput     = "input"
)

// Update is one frame of interpreter output.
type Update struct {
	Type         string          `json:"type"`
	Gen          *int            `json:"gen"`
	Message      *string         `json:"message"`
	Windows      *[]WindowInfo   `json:"windows"`
	Input        *[]InputRequest `json:"input"`
	SpecialInput *SpecialInput   `json:"specialinput"`
	Content      []ContentUpdate `json:"content"`
}

// WindowInfo describes one window in a windows list.
type WindowInfo struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Rock int    `json:"rock"`
}

// InputRequest is one entry of the input list.
type InputRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Gen  int    `json:"gen"`
}

// SpecialInput is a non-window input request such as a file chooser.
type SpecialInput struct {
	Type     string `json:"type"`
	FileMode string `json:"filemode"`
	FileType string `json:"filetype"`
}

type contentShape int

const (
	shapeUnknown contentShape = iota
	shapeLines
	shapeText
	shapeClear
)

// ContentUpdate carries new content for one window.
type ContentUpdate struct {
	ID    int
	Lines []*Line
	Text  []*Line
	Raw   json.RawMessage
	shape contentShape
}

// UnmarshalJSON records which redraw shape the entry uses. Lines wins over
// text, text over clear.
func (c *ContentUpdate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	c.Raw = append(json.RawMessage(nil), data...)
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &c.ID); err != nil {
			return fmt.Errorf("content id: %w", err)
		}
	}
	if raw, ok := fields["lines"]; ok {
		c.shape = shapeLines
		return json.Unmarshal(raw, &c.Lines)
	}
	if raw, ok := fields["text"]; ok {
		c.shape = shapeText
		return json.Unmarshal(raw, &c.Text)
	}
	if _, ok := fields["clear"]; ok {
		c.shape = shapeClear
		return nil
	}
	c.shape = shapeUnknown
	return nil
}

// Line is a grid line or a buffer paragraph. A nil Content means the line
// carries no renderable text.
type Line struct {
	Line    int    `json:"line"`
	Append  bool   `json:"append"`
	Content *Spans `json:"content"`
}

// Span is a run of styled text.
type Span struct {
	Style string `json:"style"`
	Text  string `json:"text"`
}

// Spans accepts both span encodings RemGlk has used: a list of objects, and
// a flat list alternating style and text strings.
type Spans []Span

// UnmarshalJSON implements json.Unmarshaler.
func (s *Spans) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Spans, 0, len(items))
	for i := 0; i < len(items); i++ {
		var style string
		if err := json.Unmarshal(items[i], &style); err == nil {
			span := Span{Style: style}
			if i+1 < len(items) {
				if err := json.Unmarshal(items[i+1], &span.Text); err != nil {
					return fmt.Errorf("span text: %w", err)
				}
				i++
			}
			out = append(out, span)
			continue
		}
		var span Span
		if err := json.Unmarshal(items[i], &span); err != nil {
			return fmt.Errorf("span: %w", err)
		}
		out = append(out, span)
	}
	*s = out
	return nil
}
