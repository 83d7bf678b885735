package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/storeops/internal/config"
	"github.com/user/storeops/internal/delivery"
	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/metrics"
	"github.com/user/storeops/internal/pipeline"
	"github.com/user/storeops/internal/scheduler"
	"github.com/user/storeops/internal/server"
	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/telegram"
	"github.com/user/storeops/internal/tools"
	"github.com/user/storeops/internal/workflow"
)

const pidFileName = "storeops.pid"

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("seed", false, "load demo data before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, scheduler and bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

// app holds the long-lived components shared by serve and run.
type app struct {
	repo       *state.Repository
	tools      *tools.Registry
	supervisor *gateway.Supervisor
	metrics    *metrics.Collector
}

func newApp(cfg *config.Config, repo *state.Repository) *app {
	collector := metrics.NewCollector("storeops")

	registry := tools.NewRegistry()
	tools.NewCatalogue(repo).Register(registry)
	registry.SetObserver(collector)

	exec := pipeline.New(pipeline.DefaultSteps(), registry)
	exec.SetObserver(collector)

	sup := gateway.NewSupervisor(exec, gateway.Options{
		MaxConcurrent: int64(cfg.MaxConcurrent),
		BusCapacity:   cfg.Stream.BusCapacity,
		Observer:      collector,
	})
	return &app{
		repo:       repo,
		tools:      registry,
		supervisor: sup,
		metrics:    collector,
	}
}

func (a *app) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.supervisor.Shutdown(ctx); err != nil {
		slog.Warn("runs still in flight at shutdown", "error", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		if err := state.Seed(ctx, repo); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		slog.Info("demo data loaded")
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	a := newApp(cfg, repo)
	defer a.shutdown(30 * time.Second)

	engine, err := workflow.New(cfg.Workflow, a.supervisor)
	if err != nil {
		return fmt.Errorf("create workflow engine: %w", err)
	}

	deliveryReg := delivery.NewRegistry()
	deliveryReg.Register("log:", delivery.LogHandler)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, a.supervisor, repo)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		deliveryReg.Register(telegram.KeyPrefix, adapter.Deliver)
		g.Go(func() error {
			adapter.Start(gctx)
			return nil
		})
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	sched := scheduler.New(scheduleStore(cfg), a.supervisor, deliveryReg)
	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	srv := server.New(gctx, server.Deps{
		Supervisor: a.supervisor,
		Repo:       repo,
		Tools:      a.tools,
		Engine:     engine,
		Metrics:    a.metrics,
	}, server.Options{
		Heartbeat:      cfg.Stream.Heartbeat(),
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		slog.Info("http server started", "listen", cfg.HTTP.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info("storeops started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"store_backend", cfg.Store.Backend,
		"workflow_mode", cfg.Workflow.Mode,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-gctx.Done():
			cancel()
			return g.Wait()
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				slog.Info("received SIGHUP, reloading schedules")
				if err := sched.Reload(); err != nil {
					slog.Error("reload schedules failed", "error", err)
				}
				continue
			}
			slog.Info("shutting down", "signal", sig)
			cancel()
			return g.Wait()
		}
	}
}
