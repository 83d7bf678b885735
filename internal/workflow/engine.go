// Package workflow starts store-operations runs as named long-running
// executions and reports on them by handle.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/storeops/internal/config"
)

var (
	// ErrUnavailable means no engine or state machine can take the request.
	ErrUnavailable = errors.New("workflow engine unavailable")
	// ErrExecutionNotFound means the handle names no known execution.
	ErrExecutionNotFound = errors.New("execution not found")
)

// Status is an execution's state as reported by Describe.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Execution describes one workflow execution.
type Execution struct {
	Handle    string     `json:"execution_arn"`
	Status    Status     `json:"status"`
	Output    string     `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartDate time.Time  `json:"start_date,omitzero"`
	StopDate  *time.Time `json:"stop_date,omitempty"`
}

// Engine starts and describes workflow executions.
type Engine interface {
	Start(ctx context.Context, input map[string]string) (string, error)
	Describe(ctx context.Context, handle string) (*Execution, error)
}

// Disabled is an Engine that rejects every request with ErrUnavailable.
type Disabled struct{}

func (Disabled) Start(context.Context, map[string]string) (string, error) {
	return "", fmt.Errorf("start workflow: %w", ErrUnavailable)
}

func (Disabled) Describe(context.Context, string) (*Execution, error) {
	return nil, fmt.Errorf("describe workflow: %w", ErrUnavailable)
}

// New returns the engine selected by cfg.Mode. runner backs the local mode.
func New(cfg config.WorkflowConfig, runner Runner) (Engine, error) {
	switch cfg.Mode {
	case "", "local":
		if runner == nil || cfg.StateMachine == "" {
			return Disabled{}, nil
		}
		return NewLocalEngine(cfg.StateMachine, runner), nil
	case "remote":
		if cfg.URL == "" {
			return nil, errors.New("workflow.url is required in remote mode")
		}
		return NewRemoteEngine(cfg.URL, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	case "disabled":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown workflow mode %q", cfg.Mode)
	}
}
