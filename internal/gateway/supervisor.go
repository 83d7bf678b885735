// Package gateway launches pipeline runs and hands their event streams to
// subscribers.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

// ErrShuttingDown is returned by Start once Shutdown has begun.
var ErrShuttingDown = errors.New("supervisor shutting down")

// DefaultHistory is how many finished runs are kept for status lookups.
const DefaultHistory = 100

// Executor runs the pipeline once, reporting on bus.
type Executor interface {
	Run(ctx context.Context, input map[string]string, bus *stream.Bus) (string, error)
}

// Observer is notified of run lifecycle changes. RunFinished is called
// once for every RunStarted.
type Observer interface {
	RunStarted()
	RunFinished(status RunStatus, elapsed time.Duration, dropped int64)
}

// Options configures a Supervisor.
type Options struct {
	MaxConcurrent int64
	BusCapacity   int
	History       int
	Observer      Observer
}

// Supervisor runs each started pipeline on its own goroutine, at most
// MaxConcurrent at a time. Runs are not tied to the caller's context: a
// subscriber going away does not stop its run.
type Supervisor struct {
	exec      Executor
	opts      Options
	semaphore *semaphore.Weighted
	active    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	runs     map[types.RunID]*Run
	finished []types.RunID
	closed   bool
}

// NewSupervisor creates a Supervisor that runs exec.
func NewSupervisor(exec Executor, opts Options) *Supervisor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.BusCapacity <= 0 {
		opts.BusCapacity = stream.DefaultCapacity
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		exec:      exec,
		opts:      opts,
		semaphore: semaphore.NewWeighted(opts.MaxConcurrent),
		ctx:       ctx,
		cancel:    cancel,
		runs:      make(map[types.RunID]*Run),
	}
}

// Start launches a run for input and returns its subscription. The start
// event is already on the bus when Start returns.
func (s *Supervisor) Start(input map[string]string) (*Subscription, error) {
	run := NewRun(input)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.runs[run.ID] = run
	s.wg.Add(1)
	s.mu.Unlock()

	bus := stream.NewBus(s.opts.BusCapacity)
	_ = bus.Put(stream.Start("Store operations run starting...", time.Now()))

	slog.Info("run started", "run_id", string(run.ID), "store_id", run.Input["store_id"], "trigger", run.Input["trigger"])
	go s.execute(run, bus)
	return &Subscription{RunID: run.ID, bus: bus}, nil
}

// execute owns the run's bus. Whatever way the run ends, the bus receives
// exactly one result and done pair and is closed.
func (s *Supervisor) execute(run *Run, bus *stream.Bus) {
	defer s.wg.Done()

	settled := false
	defer func() {
		if settled {
			return
		}
		reason := "execution context exited"
		if p := recover(); p != nil {
			reason = fmt.Sprint(p)
		}
		msg := "run aborted: " + reason
		slog.Error("run aborted", "run_id", string(run.ID), "reason", reason)
		bus.Terminate(stream.Failed(msg, time.Now()), time.Now())
		s.finish(run, "", errors.New(msg), bus.Dropped())
	}()

	if err := s.semaphore.Acquire(s.ctx, 1); err != nil {
		bus.Terminate(stream.Failed("run cancelled before start: "+err.Error(), time.Now()), time.Now())
		settled = true
		s.finish(run, "", err, bus.Dropped())
		return
	}
	defer s.semaphore.Release(1)

	s.markRunning(run)
	out, err := s.exec.Run(s.ctx, run.Input, bus)
	if err != nil {
		bus.Terminate(stream.Failed(err.Error(), time.Now()), time.Now())
	} else {
		bus.Terminate(stream.Succeeded(out, time.Now()), time.Now())
	}
	settled = true
	s.finish(run, out, err, bus.Dropped())
}

func (s *Supervisor) markRunning(run *Run) {
	now := time.Now()
	s.mu.Lock()
	run.Status = RunStatusRunning
	run.StartedAt = &now
	s.mu.Unlock()

	s.active.Add(1)
	if s.opts.Observer != nil {
		s.opts.Observer.RunStarted()
	}
}

// finish records the outcome. dropped is how many events the run lost to
// a departed subscriber.
func (s *Supervisor) finish(run *Run, out string, err error, dropped int64) {
	now := time.Now()
	s.mu.Lock()
	wasRunning := run.Status == RunStatusRunning
	if run.StartedAt == nil {
		run.StartedAt = &now
	}
	run.EndedAt = &now
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = RunStatusSucceeded
		run.Output = out
	}
	s.finished = append(s.finished, run.ID)
	for len(s.finished) > s.opts.History {
		delete(s.runs, s.finished[0])
		s.finished = s.finished[1:]
	}
	status, elapsed := run.Status, run.Duration()
	s.mu.Unlock()

	if wasRunning {
		s.active.Add(-1)
	}
	if err != nil {
		slog.Warn("run failed", "run_id", string(run.ID), "error", err)
	} else {
		slog.Info("run finished", "run_id", string(run.ID), "duration", elapsed, "dropped_events", dropped)
	}
	if wasRunning && s.opts.Observer != nil {
		s.opts.Observer.RunFinished(status, elapsed, dropped)
	}
}

// Get returns a snapshot of the run with id.
func (s *Supervisor) Get(id types.RunID) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return run.clone(), true
}

// List returns snapshots of known runs, oldest first.
func (s *Supervisor) List() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Active returns the number of runs currently executing.
func (s *Supervisor) Active() int64 {
	return s.active.Load()
}

// Shutdown stops accepting runs and waits for in-flight ones. If ctx ends
// first, the remaining runs are cancelled and ctx's error returned.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
