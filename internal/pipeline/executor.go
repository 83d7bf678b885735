package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/storeops/internal/stream"
)

// Observer is notified as steps start and finish.
type Observer interface {
	StepStarted(step string)
	StepFinished(step string, elapsed time.Duration, err error)
}

// Executor runs a fixed list of steps, strictly in order, for one run at a
// time. It is safe to share across concurrent runs.
type Executor struct {
	steps      []Step
	classifier stream.Classifier
	tools      Caller
	observer   Observer
	now        func() time.Time
}

// New creates an Executor over steps. Log lines are attributed to the
// steps' roles.
func New(steps []Step, tools Caller) *Executor {
	roles := make([]string, 0, len(steps))
	for _, s := range steps {
		roles = append(roles, s.Role)
	}
	return &Executor{
		steps:      steps,
		classifier: stream.NewClassifier(roles...),
		tools:      tools,
		now:        time.Now,
	}
}

// SetObserver installs step hooks. Call before the first run.
func (e *Executor) SetObserver(o Observer) { e.observer = o }

// Steps returns the executor's steps.
func (e *Executor) Steps() []Step { return e.steps }

// Roles returns the roles used for log attribution.
func (e *Executor) Roles() []string { return e.classifier.Roles() }

// Run executes every step against input and reports on bus: one log event
// per output line, then a result and a done event, after which the bus is
// closed. The first failing step stops the run. Run returns the combined
// step output, or the failure.
func (e *Executor) Run(ctx context.Context, input map[string]string, bus *stream.Bus) (string, error) {
	framer := stream.NewFramer(func(line string) {
		_ = bus.Put(stream.Log(e.classifier.Classify(line), line, e.now()))
	})

	out, err := e.runSteps(ctx, input, framer)
	framer.Flush()

	if err != nil {
		bus.Terminate(stream.Failed(err.Error(), e.now()), e.now())
		return "", err
	}
	bus.Terminate(stream.Succeeded(out, e.now()), e.now())
	return out, nil
}

func (e *Executor) runSteps(ctx context.Context, input map[string]string, framer *stream.Framer) (string, error) {
	var outputs []Output
	for i := range e.steps {
		step := &e.steps[i]
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("run cancelled before %s: %w", step.Name, err)
		}

		sc := &StepContext{
			Input:    input,
			Out:      framer,
			step:     step,
			tools:    e.tools,
			previous: outputs,
		}
		text, err := e.runStep(ctx, step, sc)
		if err != nil {
			return "", fmt.Errorf("step %s failed: %w", step.Name, err)
		}
		outputs = append(outputs, Output{Step: step.Name, Role: step.Role, Text: text})
	}
	return summarize(outputs), nil
}

// errPanic wraps a panic raised inside a step.
var errPanic = errors.New("step panicked")

func (e *Executor) runStep(ctx context.Context, step *Step, sc *StepContext) (text string, err error) {
	if e.observer != nil {
		e.observer.StepStarted(step.Name)
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("step panicked", "step", step.Name, "panic", p)
			text, err = "", fmt.Errorf("%w: %v", errPanic, p)
		}
		if e.observer != nil {
			e.observer.StepFinished(step.Name, time.Since(start), err)
		}
	}()

	if step.Run == nil {
		return "", nil
	}
	return step.Run(ctx, sc)
}

func summarize(outputs []Output) string {
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			continue
		}
		parts = append(parts, o.Role+":\n"+text)
	}
	return strings.Join(parts, "\n\n")
}
