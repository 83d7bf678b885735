package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/types"
)

// Runner is the part of the run supervisor the local engine needs.
type Runner interface {
	Start(input map[string]string) (*gateway.Subscription, error)
	Get(id types.RunID) (gateway.Run, bool)
}

// LocalEngine runs executions in-process through a Runner. Executions run
// in the background with no subscriber; their events are dropped and
// their outcome is read back through Describe.
type LocalEngine struct {
	stateMachine string
	runner       Runner
}

func NewLocalEngine(stateMachine string, runner Runner) *LocalEngine {
	return &LocalEngine{stateMachine: stateMachine, runner: runner}
}

// Start launches a run and returns its handle "<state machine>:<run id>".
func (e *LocalEngine) Start(ctx context.Context, input map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sub, err := e.runner.Start(input)
	if err != nil {
		return "", fmt.Errorf("start workflow: %w: %v", ErrUnavailable, err)
	}
	sub.Detach()
	handle := types.NewExecutionHandle(e.stateMachine, sub.RunID)
	slog.Info("workflow started", "execution", handle)
	return handle, nil
}

func (e *LocalEngine) Describe(_ context.Context, handle string) (*Execution, error) {
	machine, id, ok := types.ParseExecutionHandle(handle)
	if !ok || machine != e.stateMachine {
		return nil, fmt.Errorf("describe %q: %w", handle, ErrExecutionNotFound)
	}
	run, ok := e.runner.Get(id)
	if !ok {
		return nil, fmt.Errorf("describe %q: %w", handle, ErrExecutionNotFound)
	}

	exec := &Execution{Handle: handle, StartDate: run.CreatedAt, StopDate: run.EndedAt}
	switch run.Status {
	case gateway.RunStatusSucceeded:
		exec.Status = StatusSucceeded
		exec.Output = run.Output
	case gateway.RunStatusFailed:
		exec.Status = StatusFailed
		exec.Error = run.Error
	default:
		exec.Status = StatusRunning
	}
	return exec, nil
}
