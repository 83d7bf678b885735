package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/storeops/internal/state"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleAddCmd, scheduleListCmd, scheduleRemoveCmd, scheduleEnableCmd, scheduleDisableCmd)

	scheduleAddCmd.Flags().String("name", "", "schedule name (required)")
	scheduleAddCmd.Flags().String("cron", "", "cron expression, optional seconds field (required)")
	scheduleAddCmd.Flags().String("store-id", "", "store to run for")
	scheduleAddCmd.Flags().String("notify", "", `delivery key for the run summary ("log:" or "telegram:<chat id>")`)
	scheduleAddCmd.Flags().StringToString("param", nil, "extra pipeline input, key=value")
	_ = scheduleAddCmd.MarkFlagRequired("name")
	_ = scheduleAddCmd.MarkFlagRequired("cron")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled runs",
	Long:  "Manage scheduled runs. A running server picks up changes after `storeops reload`.",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		expr, _ := cmd.Flags().GetString("cron")
		storeID, _ := cmd.Flags().GetString("store-id")
		notify, _ := cmd.Flags().GetString("notify")
		params, _ := cmd.Flags().GetStringToString("param")

		store := scheduleStore(loadConfig())
		sched := &state.Schedule{
			Name:    name,
			Cron:    expr,
			StoreID: storeID,
			Params:  params,
			Notify:  notify,
			Enabled: true,
		}
		if err := store.Add(sched); err != nil {
			return fmt.Errorf("add schedule: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Schedule %q added.\n", name)
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schedules, err := scheduleStore(loadConfig()).List()
		if err != nil {
			return fmt.Errorf("list schedules: %w", err)
		}

		if len(schedules) == 0 {
			fmt.Println("No schedules configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCRON\tSTORE\tENABLED\tNOTIFY")
		for _, s := range schedules {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", s.Name, s.Cron, s.StoreID, s.Enabled, s.Notify)
		}
		return w.Flush()
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scheduleStore(loadConfig()).Remove(args[0]); err != nil {
			return fmt.Errorf("remove schedule: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Schedule %q removed.\n", args[0])
		return nil
	},
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scheduleStore(loadConfig()).SetEnabled(args[0], true); err != nil {
			return fmt.Errorf("enable schedule: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Schedule %q enabled.\n", args[0])
		return nil
	},
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scheduleStore(loadConfig()).SetEnabled(args[0], false); err != nil {
			return fmt.Errorf("disable schedule: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Schedule %q disabled.\n", args[0])
		return nil
	},
}
