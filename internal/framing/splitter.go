// Package framing splits a byte stream into top-level JSON values.
package framing

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errInvalidValue = errors.New("invalid json value")

// FrameError reports a stream that can no longer be split into values.
// There is no safe point to resume from once it occurs.
type FrameError struct {
	Offset  int64
	Partial []byte
	Err     error
}

func (e *FrameError) Error() string {
	if e == nil || e.Err == nil {
		return "frame error"
	}
	return fmt.Sprintf("frame error at byte %d: %v", e.Offset, e.Err)
}

func (e *FrameError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Splitter yields one JSON object or array per call to Next, regardless of
// how the underlying reader chunks its data.
type Splitter struct {
	reader *bufio.Reader
	offset int64
	buf    []byte
	stack  []byte
	err    error
}

// NewSplitter wraps r.
func NewSplitter(r io.Reader) *Splitter {
	return &Splitter{reader: bufio.NewReader(r)}
}

// Next returns the next complete value. It returns io.EOF when the stream
// ends between values, and a *FrameError when it ends inside one or contains
// something that is not a JSON object or array. A FrameError is sticky.
func (s *Splitter) Next() (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.buf = s.buf[:0]
	s.stack = s.stack[:0]
	inString := false
	escaped := false
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(s.buf) > 0 {
				return nil, s.fail(io.ErrUnexpectedEOF)
			}
			return nil, err
		}
		s.offset++
		if len(s.buf) == 0 {
			if isSpace(b) {
				continue
			}
			if b != '{' && b != '[' {
				s.buf = append(s.buf, b)
				return nil, s.fail(fmt.Errorf("unexpected %q outside a value", b))
			}
		}
		s.buf = append(s.buf, b)

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			s.stack = append(s.stack, b)
		case '}', ']':
			open := byte('{')
			if b == ']' {
				open = '['
			}
			if len(s.stack) == 0 || s.stack[len(s.stack)-1] != open {
				return nil, s.fail(fmt.Errorf("mismatched %q", b))
			}
			s.stack = s.stack[:len(s.stack)-1]
			if len(s.stack) == 0 {
				frame := make(json.RawMessage, len(s.buf))
				copy(frame, s.buf)
				if !json.Valid(frame) {
					return nil, s.fail(errInvalidValue)
				}
				return frame, nil
			}
		}
	}
}

func (s *Splitter) fail(err error) error {
	partial := make([]byte, len(s.buf))
	copy(partial, s.buf)
	s.err = &FrameError{Offset: s.offset, Partial: partial, Err: err}
	return s.err
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
