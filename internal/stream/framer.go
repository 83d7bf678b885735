package stream

import (
	"bytes"
	"strings"
)

// Framer accumulates written fragments and emits each complete line,
// trimmed of surrounding whitespace, to its sink. Blank lines are dropped.
// A Framer is not safe for concurrent writers.
type Framer struct {
	buf  []byte
	sink func(line string)
}

// NewFramer returns a Framer that emits lines to sink.
func NewFramer(sink func(line string)) *Framer {
	return &Framer{sink: sink}
}

func (f *Framer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	f.drain()
	return len(p), nil
}

func (f *Framer) WriteString(s string) (int, error) {
	f.buf = append(f.buf, s...)
	f.drain()
	return len(s), nil
}

// Flush emits any buffered partial line and clears the buffer.
func (f *Framer) Flush() {
	rest := string(f.buf)
	f.buf = f.buf[:0]
	f.emit(rest)
}

// Buffered returns the number of bytes held as a partial line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

func (f *Framer) drain() {
	start := 0
	for {
		i := bytes.IndexByte(f.buf[start:], '\n')
		if i < 0 {
			break
		}
		f.emit(string(f.buf[start : start+i]))
		start += i + 1
	}
	if start > 0 {
		f.buf = append(f.buf[:0], f.buf[start:]...)
	}
}

func (f *Framer) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	f.sink(line)
}
