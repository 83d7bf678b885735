package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/storeops/internal/config"
	"github.com/user/storeops/internal/workflow"
)

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowStartCmd, workflowStatusCmd)
	workflowCmd.PersistentFlags().String("url", "", "storeops server URL (default workflow.url, then the local listen address)")
	workflowStartCmd.Flags().String("store-id", "", "store to run for")
	workflowStartCmd.Flags().Bool("wait", false, "poll until the execution finishes")
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Start and inspect workflow executions on a running server",
}

func remoteEngine(cmd *cobra.Command, cfg *config.Config) *workflow.RemoteEngine {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = cfg.Workflow.URL
	}
	if url == "" {
		url = serverURL(cfg)
	}
	return workflow.NewRemoteEngine(url, time.Duration(cfg.Workflow.TimeoutSeconds)*time.Second).
		WithRetry(workflow.DefaultRetryPolicy())
}

var workflowStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a workflow execution",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		engine := remoteEngine(cmd, cfg)
		ctx := context.Background()

		input := map[string]string{"trigger": "workflow"}
		if id, _ := cmd.Flags().GetString("store-id"); id != "" {
			input["store_id"] = id
		}
		handle, err := engine.Start(ctx, input)
		if err != nil {
			return fmt.Errorf("start workflow: %w", err)
		}
		fmt.Fprintln(os.Stdout, handle)

		if wait, _ := cmd.Flags().GetBool("wait"); !wait {
			return nil
		}
		for {
			exec, err := engine.Describe(ctx, handle)
			if err != nil {
				return fmt.Errorf("describe workflow: %w", err)
			}
			if exec.Status != workflow.StatusRunning {
				return printJSON(exec)
			}
			time.Sleep(time.Second)
		}
	},
}

var workflowStatusCmd = &cobra.Command{
	Use:   "status <execution-arn>",
	Short: "Show a workflow execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		exec, err := remoteEngine(cmd, cfg).Describe(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("describe workflow: %w", err)
		}
		return printJSON(exec)
	},
}

// serverURL is the base URL of the locally configured server.
func serverURL(cfg *config.Config) string {
	if strings.HasPrefix(cfg.HTTP.Listen, ":") {
		return "http://localhost" + cfg.HTTP.Listen
	}
	return "http://" + cfg.HTTP.Listen
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
