package proc

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// Pump starts a goroutine that calls next until it fails and pushes every
// unit onto the returned queue. End of stream, including a pipe closed by
// teardown, closes the queue cleanly; any other error is kept on the queue.
func Pump[T any](next func() (T, error)) *Queue[T] {
	queue := NewQueue[T]()
	go func() {
		for {
			unit, err := next()
			if err != nil {
				if IsEndOfStream(err) {
					queue.Close(nil)
				} else {
					queue.Close(err)
				}
				return
			}
			queue.Push(unit)
		}
	}()
	return queue
}

// PumpBytes pumps r one byte at a time.
func PumpBytes(r io.Reader) *Queue[byte] {
	return Pump(bufio.NewReader(r).ReadByte)
}

// PumpLines pumps r one line at a time; the trailing newline is kept.
func PumpLines(r io.Reader) *Queue[string] {
	reader := bufio.NewReader(r)
	return Pump(func() (string, error) {
		line, err := reader.ReadString('\n')
		if err != nil && line != "" && IsEndOfStream(err) {
			return line, nil
		}
		return line, err
	})
}

// IsEndOfStream reports whether err means the stream ended rather than failed.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
