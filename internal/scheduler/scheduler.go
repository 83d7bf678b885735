// Package scheduler starts pipeline runs from cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/stream"
)

// Runner starts pipeline runs.
type Runner interface {
	Start(input map[string]string) (*gateway.Subscription, error)
}

// Notifier sends a run summary to a delivery key.
type Notifier interface {
	Deliver(ctx context.Context, key, message string) error
}

// Scheduler evaluates the schedules in a ScheduleStore and starts a run
// each time one fires. Each firing waits for its run and, when the
// schedule names a notify key, delivers a summary there.
type Scheduler struct {
	store    *state.ScheduleStore
	runner   Runner
	notifier Notifier

	mu   sync.Mutex
	ctx  context.Context
	cron *cron.Cron
}

// New creates a Scheduler. notifier may be nil.
func New(store *state.ScheduleStore, runner Runner, notifier Notifier) *Scheduler {
	return &Scheduler{
		store:    store,
		runner:   runner,
		notifier: notifier,
		cron:     cron.New(cron.WithParser(state.CronParser)),
	}
}

// Start loads the enabled schedules, registers them and starts the cron
// ticker. Firings stop waiting on their runs once ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.startLocked()
}

func (s *Scheduler) startLocked() error {
	schedules, err := s.store.List()
	if err != nil {
		return err
	}

	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		sched := sched
		if _, err := s.cron.AddFunc(sched.Cron, func() { s.Fire(s.ctx, sched) }); err != nil {
			slog.Error("invalid cron schedule", "name", sched.Name, "cron", sched.Cron, "error", err)
			continue
		}
		slog.Info("scheduled run", "name", sched.Name, "cron", sched.Cron, "store_id", sched.StoreID)
	}

	s.cron.Start()
	return nil
}

// Reload replaces the registered schedules with the store's current ones.
func (s *Scheduler) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Stop()
	s.cron = cron.New(cron.WithParser(state.CronParser))
	return s.startLocked()
}

// Stop stops the cron ticker and waits for firings in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	<-c.Stop().Done()
}

// Fire starts one run for sched, waits for its result and delivers the
// summary. It returns the summary text.
func (s *Scheduler) Fire(ctx context.Context, sched *state.Schedule) string {
	logger := slog.With("schedule", sched.Name)
	sub, err := s.runner.Start(sched.RunInput())
	if err != nil {
		logger.Error("scheduled run not started", "error", err)
		return ""
	}
	logger.Info("scheduled run started", "run_id", string(sub.RunID))

	result, err := stream.AwaitResult(ctx, sub)
	if err != nil {
		logger.Warn("scheduled run not awaited", "run_id", string(sub.RunID), "error", err)
		return ""
	}

	summary := Summary(sched, string(sub.RunID), result)
	if sched.Notify != "" && s.notifier != nil {
		if err := s.notifier.Deliver(ctx, sched.Notify, summary); err != nil {
			logger.Error("deliver run summary failed", "notify", sched.Notify, "error", err)
		}
	}
	return summary
}

// Summary renders the outcome of a scheduled run.
func Summary(sched *state.Schedule, runID string, result stream.Event) string {
	store := sched.RunInput()["store_id"]
	if store == "" {
		store = "default store"
	}
	if !result.Success {
		return fmt.Sprintf("Scheduled run %q (%s) for %s failed: %s", sched.Name, runID, store, result.Error)
	}
	return fmt.Sprintf("Scheduled run %q (%s) for %s completed.\n\n%s", sched.Name, runID, store, result.Output)
}
