package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func collectLines() (*[]string, func(string)) {
	var lines []string
	return &lines, func(line string) { lines = append(lines, line) }
}

func TestFramerSplitsFragments(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		before    []string
		after     []string
	}{
		{"single line", []string{"hello\n"}, []string{"hello"}, []string{"hello"}},
		{"split across writes", []string{"hel", "lo wor", "ld\nnext"}, []string{"hello world"}, []string{"hello world", "next"}},
		{"several in one write", []string{"a\nb\nc\n"}, []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"blank lines dropped", []string{"\n  \n\t\nx\n"}, []string{"x"}, []string{"x"}},
		{"trimmed", []string{"  padded  \r\n"}, []string{"padded"}, []string{"padded"}},
		{"partial only", []string{"no newline"}, nil, []string{"no newline"}},
		{"whitespace partial", []string{"done\n   "}, []string{"done"}, []string{"done"}},
		{"empty writes", []string{"", "", "z\n"}, []string{"z"}, []string{"z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, sink := collectLines()
			f := NewFramer(sink)
			for _, frag := range tt.fragments {
				n, err := f.WriteString(frag)
				assert.NoError(t, err)
				assert.Equal(t, len(frag), n)
			}
			assert.Equal(t, tt.before, *lines)
			f.Flush()
			assert.Equal(t, tt.after, *lines)
			assert.Zero(t, f.Buffered())
		})
	}
}

func TestFramerFlushTwiceEmitsOnce(t *testing.T) {
	lines, sink := collectLines()
	f := NewFramer(sink)
	_, _ = f.Write([]byte("tail"))
	f.Flush()
	f.Flush()
	assert.Equal(t, []string{"tail"}, *lines)
}

func TestFramerLinesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		want := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9 ]{0,10}[a-z0-9][a-z0-9 ]{0,10}`), 0, 20).Draw(t, "lines")
		partial := rapid.StringMatching(`[a-z0-9]{0,12}`).Draw(t, "partial")

		var text strings.Builder
		for _, l := range want {
			text.WriteString(l)
			text.WriteByte('\n')
		}
		text.WriteString(partial)

		var got []string
		f := NewFramer(func(line string) { got = append(got, line) })

		rest := text.String()
		for len(rest) > 0 {
			n := rapid.IntRange(1, 7).Draw(t, "chunk")
			if n > len(rest) {
				n = len(rest)
			}
			_, _ = f.WriteString(rest[:n])
			rest = rest[n:]
		}

		if len(got) != len(want) {
			t.Fatalf("emitted %d lines before flush, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != strings.TrimSpace(want[i]) {
				t.Fatalf("line %d = %q, want %q", i, got[i], strings.TrimSpace(want[i]))
			}
		}

		f.Flush()
		wantAfter := len(want)
		if partial != "" {
			wantAfter++
		}
		if len(got) != wantAfter {
			t.Fatalf("emitted %d lines after flush, want %d", len(got), wantAfter)
		}
		if partial != "" && got[len(got)-1] != partial {
			t.Fatalf("flushed %q, want %q", got[len(got)-1], partial)
		}
	})
}
