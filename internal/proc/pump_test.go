package proc

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

func TestPumpBytesPreservesOrder(t *testing.T) {
	r, w := io.Pipe()
	q := PumpBytes(r)
	go func() {
		_, _ = w.Write([]byte("ab"))
		_, _ = w.Write([]byte("c"))
		_ = w.Close()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got []byte
	for {
		b, err := q.Pop(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "abc" {
		t.Fatalf("unexpected bytes %q", got)
	}
}

func TestPumpLinesKeepsUnterminatedTail(t *testing.T) {
	r, w := io.Pipe()
	q := PumpLines(r)
	go func() {
		_, _ = w.Write([]byte("one\ntwo"))
		_ = w.Close()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []string{"one\n", "two"} {
		line, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if line != want {
			t.Fatalf("expected %q, got %q", want, line)
		}
	}
	if _, err := q.Pop(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestPumpKeepsNonEndOfStreamError(t *testing.T) {
	boom := errors.New("boom")
	r, w := io.Pipe()
	q := PumpBytes(r)
	_ = w.CloseWithError(boom)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := q.Pop(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestIsEndOfStream(t *testing.T) {
	for _, err := range []error{io.EOF, os.ErrClosed, io.ErrClosedPipe} {
		if !IsEndOfStream(err) {
			t.Fatalf("expected %v to end the stream", err)
		}
	}
	if IsEndOfStream(io.ErrUnexpectedEOF) {
		t.Fatalf("unexpected EOF is a failure, not an end of stream")
	}
}
