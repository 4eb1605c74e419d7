package framing

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestSplitterYieldsBackToBackValues(t *testing.T) {
	input := `{"type":"update","gen":1} [1,2]` + "\n" + `{"text":"a } in \"quotes\" ]"}`
	splitter := NewSplitter(iotest.OneByteReader(strings.NewReader(input)))

	want := []string{`{"type":"update","gen":1}`, `[1,2]`, `{"text":"a } in \"quotes\" ]"}`}
	for i, expected := range want {
		frame, err := splitter.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if string(frame) != expected {
			t.Fatalf("frame %d: expected %s, got %s", i, expected, frame)
		}
	}
	if _, err := splitter.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSplitterNestedValue(t *testing.T) {
	input := `{"windows":[{"id":1,"rock":[{}]}],"content":[]}`
	frame, err := NewSplitter(strings.NewReader(input)).Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(frame) != input {
		t.Fatalf("unexpected frame: %s", frame)
	}
}

func TestSplitterTruncatedValue(t *testing.T) {
	splitter := NewSplitter(strings.NewReader(`{"type":"update","content":[`))
	frame, err := splitter.Next()
	if frame != nil {
		t.Fatalf("expected no partial frame, got %s", frame)
	}
	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected FrameError, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	if string(frameErr.Partial) != `{"type":"update","content":[` {
		t.Fatalf("unexpected partial: %q", frameErr.Partial)
	}
	if _, again := splitter.Next(); again != err {
		t.Fatalf("expected sticky error, got %v", again)
	}
}

func TestSplitterRejectsTextOutsideValue(t *testing.T) {
	splitter := NewSplitter(strings.NewReader("Glulxe fatal error\n{}"))
	_, err := splitter.Next()
	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected FrameError, got %v", err)
	}
	if frameErr.Offset != 1 {
		t.Fatalf("expected offset 1, got %d", frameErr.Offset)
	}
}

func TestSplitterRejectsMismatchedBracket(t *testing.T) {
	_, err := NewSplitter(strings.NewReader(`{"a":[1}`)).Next()
	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected FrameError, got %v", err)
	}
}

func TestSplitterRejectsInvalidJSON(t *testing.T) {
	_, err := NewSplitter(strings.NewReader(`{"a" 1}`)).Next()
	if !errors.Is(err, errInvalidValue) {
		t.Fatalf("expected invalid value error, got %v", err)
	}
}

func TestSplitterPassesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewSplitter(iotest.ErrReader(boom)).Next()
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		t.Fatalf("read errors must not be frame errors")
	}
}
