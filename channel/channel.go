// Package channel provides the bounded, backpressured FIFO queue that
// connects the stages of a flowgraph pipeline.
//
// A [Bounded] channel has a fixed positive capacity. Senders block while
// the buffer is full and receivers block while it is empty, which is how
// backpressure propagates from the slowest stage of a pipeline all the
// way back to its source. Close is idempotent and send-after-close is
// reported as [ErrClosed] instead of panicking, making teardown safe to
// perform from either end.
package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by [Bounded.Send] when the channel has been closed.
var ErrClosed = errors.New("channel: send on closed channel")

// Bounded is a fixed-capacity FIFO queue of elements with one writer end
// and one reader end.
//
// Go channels panic on double close and on send-after-close. Bounded
// converts these panics into errors so that a downstream stage closing
// early surfaces as an ordinary error in the upstream stage.
type Bounded[T any] struct {
	ch     chan T
	once   sync.Once
	closed chan struct{} // closed when Close() is called

	mu       sync.RWMutex // protects isClosed and serializes with Close
	isClosed bool
}

// New creates a Bounded channel with the given capacity.
// Capacity 1 yields a fully synchronous element-at-a-time handoff.
// New panics if capacity < 1.
func New[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		panic("channel: New requires capacity >= 1")
	}
	return &Bounded[T]{
		ch:     make(chan T, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues v, blocking while the buffer is full. It returns
// [ErrClosed] if the channel has been closed, or the context error if
// ctx is cancelled while waiting. An element is never dropped: a nil
// return means v was accepted into the buffer.
func (b *Bounded[T]) Send(ctx context.Context, v T) (err error) {
	// A sender blocked in the select below can commit on the send case
	// after Close has closed the underlying channel; recover turns that
	// panic into ErrClosed.
	defer func() {
		if recover() != nil {
			err = ErrClosed
		}
	}()

	b.mu.RLock()
	if b.isClosed {
		b.mu.RUnlock()
		return ErrClosed
	}

	// Fast path: room in the buffer while holding the lock.
	select {
	case b.ch <- v:
		b.mu.RUnlock()
		return nil
	default:
	}
	b.mu.RUnlock()

	// Buffer full. Block outside the lock, watching for close and cancel.
	select {
	case b.ch <- v:
		return nil
	case <-b.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv dequeues the next element, blocking while the buffer is empty.
// ok is false once the channel is closed and drained (end-of-stream).
// If ctx is cancelled while waiting, Recv returns the context error.
func (b *Bounded[T]) Recv(ctx context.Context) (v T, ok bool, err error) {
	select {
	case v, ok = <-b.ch:
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Close marks the channel as closed for writing. Elements already
// buffered remain receivable; receivers observe end-of-stream once the
// buffer drains. Close is safe to call multiple times.
func (b *Bounded[T]) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.isClosed = true
		b.mu.Unlock()

		close(b.closed)
		close(b.ch)
	})
}

// Chan exposes the underlying channel for reading, for callers that need
// to select over a receive together with other events. The channel is
// closed when [Bounded.Close] is called.
func (b *Bounded[T]) Chan() <-chan T {
	return b.ch
}

// Len reports the number of elements currently buffered.
func (b *Bounded[T]) Len() int { return len(b.ch) }

// Cap reports the fixed capacity the channel was created with.
func (b *Bounded[T]) Cap() int { return cap(b.ch) }
