package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/storeops/internal/state"
)

func init() {
	rootCmd.AddCommand(seedCmd, inventoryCmd)
	inventoryCmd.AddCommand(inventoryLowStockCmd, inventoryListCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo inventory, equipment, customers and staff shifts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ctx := context.Background()
		repo, closeStore, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := state.Seed(ctx, repo); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Demo data loaded into %s store.\n", cfg.Store.Backend)
		return nil
	},
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inspect inventory",
}

var inventoryLowStockCmd = &cobra.Command{
	Use:   "low-stock",
	Short: "List items at or below their reorder threshold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printInventory(true)
	},
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all inventory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printInventory(false)
	},
}

func printInventory(lowOnly bool) error {
	cfg := loadConfig()
	ctx := context.Background()
	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	list := repo.ListInventory
	if lowOnly {
		list = repo.ListLowStock
	}
	items, err := list(ctx)
	if err != nil {
		return fmt.Errorf("list inventory: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No items.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tNAME\tQUANTITY\tTHRESHOLD")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%d %s\t%d\n", it.SKU, it.Name, it.Quantity, it.Unit, it.ReorderThreshold)
	}
	return w.Flush()
}
