package kernel

import (
	"context"
	"sync/atomic"
)

// Channel is a bounded message queue with context-governed blocking on both
// ends. It backs the broadcast side of in-process transports and the fakes
// used in tests.
type Channel[T any] struct {
	ch     chan T
	closed atomic.Int32
}

// NewChannel creates a Channel with the given buffer size.
func NewChannel[T any](bufferSize int) *Channel[T] {
	return &Channel[T]{ch: make(chan T, bufferSize)}
}

// Send enqueues a message, blocking until there is room or ctx is done.
func (c *Channel[T]) Send(ctx context.Context, msg T) error {
	select {
	case c.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive dequeues the next message, blocking until one arrives or ctx is
// done. Receiving from a closed, drained channel returns ErrChannelClosed.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case msg, ok := <-c.ch:
		if !ok {
			return zero, ErrChannelClosed
		}
		return msg, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TrySend enqueues without blocking, reporting whether the message was accepted.
func (c *Channel[T]) TrySend(msg T) bool {
	if c.closed.Load() == 1 {
		return false
	}
	select {
	case c.ch <- msg:
		return true
	default:
		return false
	}
}

// Close makes the channel unusable for senders. Idempotent.
func (c *Channel[T]) Close() {
	if c.closed.CompareAndSwap(0, 1) {
		close(c.ch)
	}
}

// IsClosed reports whether Close has been called.
func (c *Channel[T]) IsClosed() bool {
	return c.closed.Load() == 1
}
