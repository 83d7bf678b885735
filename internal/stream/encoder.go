package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultIdle is the longest the encoder waits for an event before it
// synthesizes a heartbeat.
const DefaultIdle = 120 * time.Second

// Source yields the events of one run. Detach tells the producer that
// nobody is reading any more.
type Source interface {
	Next(ctx context.Context) (Event, error)
	Detach()
}

// FrameSink writes one event to a subscriber's connection.
type FrameSink interface {
	Send(ev Event) error
}

// SinkFunc adapts a function to FrameSink.
type SinkFunc func(ev Event) error

func (f SinkFunc) Send(ev Event) error { return f(ev) }

// Encoder drains a Source into a FrameSink, inserting heartbeats while the
// source is idle and always finishing with a done frame.
type Encoder struct {
	Idle        time.Duration
	Now         func() time.Time
	OnHeartbeat func()
}

// NewEncoder returns an Encoder with the given idle interval.
func NewEncoder(idle time.Duration) *Encoder {
	return &Encoder{Idle: idle}
}

// Encode runs until the done event has been written, the sink fails, or
// ctx is cancelled. On sink failure or cancellation the source is detached
// so the producer keeps running without a reader.
func (e *Encoder) Encode(ctx context.Context, src Source, sink FrameSink) error {
	for {
		wait, cancel := context.WithTimeout(ctx, e.idle())
		ev, err := src.Next(wait)
		cancel()

		switch {
		case err == nil:
			if err := sink.Send(ev); err != nil {
				src.Detach()
				return fmt.Errorf("send %s frame: %w", ev.Kind, err)
			}
			if ev.Kind == KindDone {
				return nil
			}
		case errors.Is(err, io.EOF):
			if err := sink.Send(Done(e.now())); err != nil {
				return fmt.Errorf("send done frame: %w", err)
			}
			return nil
		case ctx.Err() != nil:
			src.Detach()
			return ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			if e.OnHeartbeat != nil {
				e.OnHeartbeat()
			}
			if err := sink.Send(Heartbeat(e.now())); err != nil {
				src.Detach()
				return fmt.Errorf("send heartbeat frame: %w", err)
			}
		default:
			src.Detach()
			return fmt.Errorf("read event: %w", err)
		}
	}
}

func (e *Encoder) idle() time.Duration {
	if e.Idle <= 0 {
		return DefaultIdle
	}
	return e.Idle
}

func (e *Encoder) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// AwaitResult drains src until its result event and returns it. The
// remaining events are drained so the producer can finish. If ctx ends
// first the source is detached and ctx's error returned.
func AwaitResult(ctx context.Context, src Source) (Event, error) {
	var result Event
	found := false
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !found {
					return Event{}, errors.New("stream ended without a result")
				}
				return result, nil
			}
			src.Detach()
			return Event{}, err
		}
		switch ev.Kind {
		case KindResult:
			result, found = ev, true
		case KindDone:
			if !found {
				return Event{}, errors.New("stream ended without a result")
			}
			return result, nil
		}
	}
}
