package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("url", "", "storeops server URL (default the local listen address)")
	simulateCmd.Flags().Int("count", 10, "number of rounds")
	simulateCmd.Flags().Duration("interval", 2*time.Second, "pause between rounds")
	simulateCmd.Flags().StringSlice("skus", []string{"SKU-001", "SKU-002", "SKU-003"}, "SKUs to update")
	simulateCmd.Flags().StringSlice("equipment", []string{"EQ-FRIDGE-01", "EQ-OVEN-01"}, "equipment to report on")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Post random inventory and equipment telemetry to a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		base, _ := cmd.Flags().GetString("url")
		if base == "" {
			base = serverURL(cfg)
		}
		count, _ := cmd.Flags().GetInt("count")
		interval, _ := cmd.Flags().GetDuration("interval")
		skus, _ := cmd.Flags().GetStringSlice("skus")
		equipment, _ := cmd.Flags().GetStringSlice("equipment")
		if len(skus) == 0 || len(equipment) == 0 {
			return fmt.Errorf("need at least one SKU and one piece of equipment")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		client := &http.Client{Timeout: 10 * time.Second}

		fmt.Println("Simulating telemetry (Ctrl+C to stop)...")
		for i := range count {
			sku := skus[rand.IntN(len(skus))]
			qty := 1 + rand.IntN(50)
			err := postJSON(ctx, client, base+"/telemetry/inventory", map[string]any{"sku": sku, "quantity": qty})
			fmt.Printf("Inventory event: %s -> %d  (%s)\n", sku, qty, outcome(err))

			id := equipment[rand.IntN(len(equipment))]
			health := math.Round((0.2+rand.Float64()*0.8)*100) / 100
			err = postJSON(ctx, client, base+"/telemetry/equipment", map[string]any{
				"equipment_id": id,
				"health_score": health,
				"metrics":      map[string]any{"temp": 18 + rand.IntN(11)},
			})
			fmt.Printf("Equipment event: %s health=%.2f  (%s)\n", id, health, outcome(err))

			if i == count-1 {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		fmt.Println("Simulation done.")
		return nil
	},
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failed: " + err.Error()
	}
	return "ok"
}
