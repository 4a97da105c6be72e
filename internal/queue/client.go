package queue

import (
	"context"
	"errors"
)

// Client enqueues analysis work for the processor.
type Client interface {
	Enqueue(ctx context.Context, msg Message) error
}

// ErrClosed is returned when enqueueing into a closed queue.
var ErrClosed = errors.New("queue closed")

// Memory is a buffered in-process queue. The HTTP layer enqueues request IDs
// and the processor workers dequeue them; there is no external broker.
type Memory struct {
	ch     chan Message
	closed chan struct{}
}

// NewMemory creates a queue with the given buffer size.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 128
	}
	return &Memory{
		ch:     make(chan Message, size),
		closed: make(chan struct{}),
	}
}

// Enqueue adds a message, blocking until there is room, the context is done
// or the queue is closed.
func (q *Memory) Enqueue(ctx context.Context, msg Message) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- msg:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a message is available, the context is done or the
// queue is closed and drained.
func (q *Memory) Dequeue(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-q.closed:
		// Drain whatever was enqueued before the close.
		select {
		case msg := <-q.ch:
			return msg, nil
		default:
			return Message{}, ErrClosed
		}
	}
}

// Depth reports the number of messages waiting to be dequeued.
func (q *Memory) Depth() int {
	return len(q.ch)
}

// Close stops accepting new work. Pending messages can still be dequeued.
func (q *Memory) Close() {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
}
