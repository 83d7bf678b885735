package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("store-id", "", "store to run for (default from config)")
	runCmd.Flags().String("sku", "", "also report on this SKU")
	runCmd.Flags().String("customer-id", "", "also look up this customer")
	runCmd.Flags().Bool("sse", false, "print raw server-sent event frames")
	runCmd.Flags().Bool("seed", false, "load demo data first")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the operations pipeline once and stream its output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo, closeStore, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			if err := state.Seed(ctx, repo); err != nil {
				return fmt.Errorf("seed store: %w", err)
			}
		}

		input := map[string]string{"store_id": cfg.StoreID, "trigger": "cli"}
		for flag, key := range map[string]string{"store-id": "store_id", "sku": "sku", "customer-id": "customer_id"} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				input[key] = v
			}
		}

		a := newApp(cfg, repo)
		defer a.shutdown(5 * time.Second)

		sub, err := a.supervisor.Start(types.RunInput(input))
		if err != nil {
			return fmt.Errorf("start run: %w", err)
		}

		var sink stream.FrameSink = stream.NewSSEWriter(os.Stdout)
		var result stream.Event
		if raw, _ := cmd.Flags().GetBool("sse"); !raw {
			sink = stream.SinkFunc(func(ev stream.Event) error {
				printEvent(ev)
				if ev.Kind == stream.KindResult {
					result = ev
				}
				return nil
			})
		}
		if err := stream.NewEncoder(cfg.Stream.Heartbeat()).Encode(ctx, sub, sink); err != nil {
			return fmt.Errorf("stream run %s: %w", sub.RunID, err)
		}
		if result.Kind == stream.KindResult && !result.Success {
			return fmt.Errorf("run %s failed", sub.RunID)
		}
		return nil
	},
}

func printEvent(ev stream.Event) {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Kind {
	case stream.KindStart:
		fmt.Printf("%s  %s\n", ts, ev.Message)
	case stream.KindLog:
		fmt.Printf("%s  %-32s %s\n", ts, ev.Agent, ev.Message)
	case stream.KindResult:
		if ev.Success {
			fmt.Printf("\n%s\n", ev.Output)
		} else {
			fmt.Printf("\nRun failed: %s\n", ev.Error)
		}
	}
}
