package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	failAt int
}

func (s *recordingSink) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.events)+1 >= s.failAt {
		return errors.New("connection reset")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) kinds() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Kind
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestEncoderHeartbeatsWhileIdle(t *testing.T) {
	bus := NewBus(4)
	require.NoError(t, bus.Put(Start("starting", epoch)))

	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = bus.Put(Log("Pricing Analyst", "line", epoch))
		bus.Terminate(Succeeded("summary", epoch), epoch)
	}()

	beats := 0
	enc := &Encoder{Idle: 10 * time.Millisecond, Now: func() time.Time { return epoch }, OnHeartbeat: func() { beats++ }}
	sink := &recordingSink{}
	require.NoError(t, enc.Encode(context.Background(), bus, sink))

	kinds := sink.kinds()
	require.GreaterOrEqual(t, len(kinds), 5)
	assert.Equal(t, KindStart, kinds[0])
	assert.Equal(t, KindResult, kinds[len(kinds)-2])
	assert.Equal(t, KindDone, kinds[len(kinds)-1])

	heartbeats := 0
	for _, k := range kinds[1 : len(kinds)-2] {
		switch k {
		case KindHeartbeat:
			heartbeats++
		case KindLog:
		default:
			t.Fatalf("unexpected %s in the middle of the stream", k)
		}
	}
	assert.Positive(t, heartbeats)
	assert.Equal(t, heartbeats, beats)
}

func TestEncoderSynthesizesDoneOnClose(t *testing.T) {
	bus := NewBus(4)
	require.NoError(t, bus.Put(Start("starting", epoch)))
	bus.Close()

	sink := &recordingSink{}
	require.NoError(t, NewEncoder(time.Second).Encode(context.Background(), bus, sink))
	assert.Equal(t, []Kind{KindStart, KindDone}, sink.kinds())
}

func TestEncoderDetachesOnCancel(t *testing.T) {
	bus := NewBus(1)
	require.NoError(t, bus.Put(Start("starting", epoch)))

	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	errc := make(chan error, 1)
	go func() { errc <- NewEncoder(time.Hour).Encode(ctx, bus, sink) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("encoder did not stop on cancellation")
	}
	assert.True(t, bus.IsDetached())

	// The producer must not block now that nobody reads.
	for range 10 {
		assert.ErrorIs(t, bus.Put(Log(DefaultRole, "x", epoch)), ErrDetached)
	}
}

func TestEncoderDetachesOnSinkFailure(t *testing.T) {
	bus := NewBus(4)
	require.NoError(t, bus.Put(Start("starting", epoch)))
	require.NoError(t, bus.Put(Log(DefaultRole, "one", epoch)))

	sink := &recordingSink{failAt: 2}
	err := NewEncoder(time.Second).Encode(context.Background(), bus, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send log frame")
	assert.True(t, bus.IsDetached())
}

func TestSSEFrames(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{
			Start("Store operations run starting...", epoch),
			`data: {"type":"start","message":"Store operations run starting...","timestamp":"2026-03-01T12:00:00.000000Z"}` + "\n\n",
		},
		{
			Log("Inventory Manager", "Low stock: SKU-001", epoch),
			`data: {"type":"log","agent":"Inventory Manager","message":"Low stock: SKU-001","timestamp":"2026-03-01T12:00:00.000000Z"}` + "\n\n",
		},
		{
			Heartbeat(epoch),
			`data: {"type":"heartbeat","timestamp":"2026-03-01T12:00:00.000000Z"}` + "\n\n",
		},
		{
			Succeeded("", epoch),
			"event: result\n" + `data: {"success":true,"output":""}` + "\n\n",
		},
		{
			Failed("step failed", epoch),
			"event: result\n" + `data: {"success":false,"error":"step failed"}` + "\n\n",
		},
		{
			Done(epoch),
			"event: done\n" + `data: {"type":"done","timestamp":"2026-03-01T12:00:00.000000Z"}` + "\n\n",
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, NewSSEWriter(&buf).Send(tt.ev))
		assert.Equal(t, tt.want, buf.String())
	}
}

func TestJSONMessageTypesResult(t *testing.T) {
	data, err := Succeeded("ok", epoch).JSONMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"result","success":true,"output":"ok"}`, string(data))
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestSSEWriterFlushesEachFrame(t *testing.T) {
	rec := &flushRecorder{}
	w := NewSSEWriter(rec)
	require.NoError(t, w.Send(Heartbeat(epoch)))
	require.NoError(t, w.Send(Done(epoch)))
	assert.Equal(t, 2, rec.flushes)
	assert.Equal(t, 2, strings.Count(rec.String(), "\n\n"))
}

func TestAwaitResult(t *testing.T) {
	bus := NewBus(8)
	require.NoError(t, bus.Put(Start("go", epoch)))
	require.NoError(t, bus.Put(Log(DefaultRole, "x", epoch)))
	bus.Terminate(Failed("nope", epoch), epoch)

	ev, err := AwaitResult(context.Background(), bus)
	require.NoError(t, err)
	assert.False(t, ev.Success)
	assert.Equal(t, "nope", ev.Error)

	empty := NewBus(1)
	empty.Close()
	_, err = AwaitResult(context.Background(), empty)
	assert.Error(t, err)
}
