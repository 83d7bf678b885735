package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/storeops/internal/config"
	"github.com/user/storeops/internal/state"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "storeops",
	Short:         "Store operations pipeline and streaming API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".storeops", "config.yaml"), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file or exits; every command needs it.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openRepository opens the configured store backend. The returned store
// must be closed by the caller.
func openRepository(ctx context.Context, cfg *config.Config) (*state.Repository, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := state.Open(ctx, cfg.Store, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			slog.Warn("close store failed", "error", err)
		}
	}
	return state.NewRepository(store, state.TablesFrom(cfg.Store.Tables)), closeFn, nil
}

func scheduleStore(cfg *config.Config) *state.ScheduleStore {
	return state.NewScheduleStore(filepath.Join(cfg.DataDir, "schedules.json"))
}
