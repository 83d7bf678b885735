package gateway

import (
	"context"

	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

// Subscription is the live view of one run's events. It is read by a
// single consumer.
type Subscription struct {
	RunID types.RunID
	bus   *stream.Bus
}

// Next returns the run's next event; io.EOF after the done event.
func (s *Subscription) Next(ctx context.Context) (stream.Event, error) {
	return s.bus.Next(ctx)
}

// Detach stops delivery. The run keeps going and its remaining events are
// dropped.
func (s *Subscription) Detach() {
	s.bus.Detach()
}
