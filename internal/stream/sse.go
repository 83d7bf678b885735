package stream

import (
	"bytes"
	"fmt"
	"io"
)

type flusher interface {
	Flush()
}

// SSEWriter renders events as server-sent event frames, flushing after
// every frame when the underlying writer supports it.
type SSEWriter struct {
	w io.Writer
	f flusher
}

func NewSSEWriter(w io.Writer) *SSEWriter {
	f, _ := w.(flusher)
	return &SSEWriter{w: w, f: f}
}

func (s *SSEWriter) Send(ev Event) error {
	frame, err := Frame(ev)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if s.f != nil {
		s.f.Flush()
	}
	return nil
}

// Frame returns the SSE encoding of ev, terminated by a blank line.
func Frame(ev Event) ([]byte, error) {
	data, err := ev.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	var b bytes.Buffer
	if name := ev.Name(); name != "" {
		b.WriteString("event: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
	return b.Bytes(), nil
}
