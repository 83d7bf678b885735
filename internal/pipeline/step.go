// Package pipeline runs the fixed, ordered sequence of store-operations
// steps for one run and reports its progress on the run's event bus.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
)

// StepFunc performs one step. Narration and tool output are written through
// sc; the returned text is the step's contribution to the run result.
type StepFunc func(ctx context.Context, sc *StepContext) (string, error)

// Step is one stage of the pipeline. Steps are defined once and shared
// read-only across runs.
type Step struct {
	Name           string
	Role           string
	Description    string
	ExpectedOutput string
	Tools          []string
	Run            StepFunc
}

// Caller invokes tools by name.
type Caller interface {
	Call(ctx context.Context, name string, raw any) (string, error)
}

// Output is the recorded result of a completed step.
type Output struct {
	Step string
	Role string
	Text string
}

// StepContext is what a running step sees: the run input, an output sink
// and the tools it is allowed to use.
type StepContext struct {
	Input map[string]string
	Out   io.Writer

	step     *Step
	tools    Caller
	previous []Output
}

// Step returns the step being run.
func (sc *StepContext) Step() *Step { return sc.step }

// Say writes one narration line attributed to the step's role.
func (sc *StepContext) Say(format string, args ...any) {
	sc.write(fmt.Sprintf(format, args...))
}

// Call runs a tool listed for this step and echoes its output. Tools the
// step does not declare are refused with an error text, like any other
// input error. A non-nil error means the step must stop.
func (sc *StepContext) Call(ctx context.Context, name string, raw any) (string, error) {
	if !slices.Contains(sc.step.Tools, name) {
		text := fmt.Sprintf("Error: tool %q is not available to %s", name, sc.step.Role)
		sc.write(text)
		return text, nil
	}
	if sc.tools == nil {
		return "", fmt.Errorf("no tools configured for %s", sc.step.Name)
	}
	sc.Say("Using tool: %s", name)
	out, err := sc.tools.Call(ctx, name, raw)
	if err != nil {
		return "", err
	}
	sc.write(out)
	return out, nil
}

// Previous returns the outputs of the steps completed so far in this run.
func (sc *StepContext) Previous() []Output {
	return slices.Clone(sc.previous)
}

// write prefixes every line of text with the step's role so the classifier
// can attribute it.
func (sc *StepContext) write(text string) {
	var b strings.Builder
	for line := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", sc.step.Role, line)
	}
	if b.Len() > 0 {
		io.WriteString(sc.Out, b.String())
	}
}
