package proc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrIdle is returned by PopIdle when no unit arrived within the idle window.
var ErrIdle = errors.New("queue idle")

// Queue is an unbounded FIFO connecting one producer to one consumer.
// Push never blocks.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	err    error
	notify chan struct{}
}

// NewQueue constructs an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends a unit. Pushing to a closed queue drops the unit.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.wake()
}

// Close marks the end of the stream. Units already queued remain poppable;
// afterwards Pop returns err, or io.EOF when err is nil.
func (q *Queue[T]) Close(err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.err = err
	q.mu.Unlock()
	q.wake()
}

// Err returns the error the producer stopped with, if any.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Len returns the number of queued units.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pop blocks until a unit is available, the queue is closed and drained, or
// ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		item, ok, err := q.tryPop()
		if ok || err != nil {
			return item, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

// PopIdle pops one unit, giving up with ErrIdle when none arrives within idle.
func (q *Queue[T]) PopIdle(ctx context.Context, idle time.Duration) (T, error) {
	popCtx, cancel := context.WithTimeout(ctx, idle)
	defer cancel()
	item, err := q.Pop(popCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return item, ErrIdle
	}
	return item, err
}

// Drain removes and returns every unit currently queued without blocking.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *Queue[T]) tryPop() (T, bool, error) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		item := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		if len(q.items) == 0 {
			q.items = nil
		}
		return item, true, nil
	}
	if q.closed {
		if q.err != nil {
			return zero, false, q.err
		}
		return zero, false, io.EOF
	}
	return zero, false, nil
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
