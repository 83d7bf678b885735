package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the bus buffer size used when none is configured.
const DefaultCapacity = 100

var (
	// ErrBusClosed is returned by Put after the bus has been closed.
	ErrBusClosed = errors.New("event bus closed")
	// ErrDetached is returned by Put once the reader has gone away. The
	// event is dropped.
	ErrDetached = errors.New("event bus reader detached")
)

// Bus is a bounded FIFO of events for a single run. It has one producer
// (the goroutine executing the run) and one consumer (the subscriber).
// Put blocks while the buffer is full and the reader is attached; after
// Detach it never blocks. Close must be called by the producer.
type Bus struct {
	ch       chan Event
	detached chan struct{}

	closed     atomic.Bool
	terminated atomic.Bool
	dropped    atomic.Int64

	detachOnce sync.Once
	closeOnce  sync.Once
}

// NewBus creates a bus holding up to capacity undelivered events.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		ch:       make(chan Event, capacity),
		detached: make(chan struct{}),
	}
}

// Put appends ev, blocking while the buffer is full.
func (b *Bus) Put(ev Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case <-b.detached:
		b.dropped.Add(1)
		return ErrDetached
	default:
	}
	select {
	case b.ch <- ev:
		return nil
	case <-b.detached:
		b.dropped.Add(1)
		return ErrDetached
	}
}

// Next returns the next event, waiting until one is available, the bus is
// closed and drained (io.EOF), or ctx is done.
func (b *Bus) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-b.ch:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close marks the end of the stream. It is idempotent.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.ch)
	})
}

// Terminate pushes result followed by a done event and closes the bus.
// Only the first call has any effect; it reports whether it was that call.
func (b *Bus) Terminate(result Event, at time.Time) bool {
	if !b.terminated.CompareAndSwap(false, true) {
		return false
	}
	_ = b.Put(result)
	_ = b.Put(Done(at))
	b.Close()
	return true
}

// Terminated reports whether Terminate has been called.
func (b *Bus) Terminated() bool {
	return b.terminated.Load()
}

// Detach signals that the reader has gone away. Blocked and future Puts
// return ErrDetached instead of waiting. It is idempotent.
func (b *Bus) Detach() {
	b.detachOnce.Do(func() { close(b.detached) })
}

// IsDetached reports whether Detach has been called.
func (b *Bus) IsDetached() bool {
	select {
	case <-b.detached:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered events.
func (b *Bus) Len() int { return len(b.ch) }

// Cap returns the buffer capacity.
func (b *Bus) Cap() int { return cap(b.ch) }

// Dropped returns how many events were discarded after detachment.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }
