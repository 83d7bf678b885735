package gateway

import (
	"maps"
	"time"

	"github.com/user/storeops/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Run tracks a single execution of the pipeline.
type Run struct {
	ID        types.RunID       `json:"run_id"`
	Input     map[string]string `json:"input"`
	Status    RunStatus         `json:"status"`
	Output    string            `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
}

// NewRun creates a Run in the pending state for input.
func NewRun(input map[string]string) *Run {
	return &Run{
		ID:        types.NewRunID(),
		Input:     types.RunInput(input),
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// clone returns a copy safe to hand out while the run is still changing.
func (r *Run) clone() Run {
	c := *r
	c.Input = maps.Clone(r.Input)
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		c.EndedAt = &t
	}
	return c
}

// Duration returns how long the run executed, zero until it has ended.
func (r Run) Duration() time.Duration {
	if r.StartedAt == nil || r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(*r.StartedAt)
}
