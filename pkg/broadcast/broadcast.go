package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed when the subscriber or its broadcaster is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Dropped returns how many messages were discarded because the buffer was full.
	Dropped() uint64

	// Close is idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers without blocking on
// slow consumers.
type Broadcaster[T any] interface {
	// Subscribe creates a subscriber whose lifetime is bound to ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every active subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes all subscribers; later calls are no-ops.
	Close() error
}

type subscriber[T any] struct {
	ch      chan Message[T]
	closed  bool
	dropped atomic.Uint64
	mu      sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send never blocks; a full buffer drops msg for this subscriber only.
func (s *subscriber[T]) send(msg Message[T]) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
		s.dropped.Add(1)
	}
}
