// internal/state/seed.go
package state

import (
	"context"
	"fmt"

	"github.com/user/storeops/internal/types"
)

// Seed loads a small demo store: three SKUs (one low, one overstocked),
// two pieces of equipment (one unhealthy), three customers, a pending
// order and a weekday staff rota.
func Seed(ctx context.Context, repo *Repository) error {
	items := []types.InventoryItem{
		{SKU: "SKU-001", Name: "Organic Milk 1L", Quantity: 8, Unit: "cartons", ReorderThreshold: 20},
		{SKU: "SKU-002", Name: "Sourdough Loaf", Quantity: 35, Unit: "loaves", ReorderThreshold: 15},
		{SKU: "SKU-003", Name: "Free Range Eggs (12)", Quantity: 120, Unit: "boxes", ReorderThreshold: 25},
	}
	for _, item := range items {
		if err := repo.PutInventory(ctx, item); err != nil {
			return fmt.Errorf("seed inventory: %w", err)
		}
	}

	equipment := []types.Equipment{
		{EquipmentID: "EQ-FRIDGE-01", Name: "Dairy Refrigerator", HealthScore: 0.42, LastMaintenance: "2026-01-15",
			Metrics: map[string]any{"temperature_c": 6.8}},
		{EquipmentID: "EQ-OVEN-01", Name: "Bakery Oven", HealthScore: 0.91, LastMaintenance: "2026-02-20"},
	}
	for _, eq := range equipment {
		if err := repo.PutEquipment(ctx, eq); err != nil {
			return fmt.Errorf("seed equipment: %w", err)
		}
	}

	customers := []types.Customer{
		{CustomerID: "CUST-001", Name: "Ana Silva", Email: "ana@example.com", LoyaltyTier: "gold",
			Preferences: map[string]any{"favorite_category": "bakery"}},
		{CustomerID: "CUST-002", Name: "Ben Okafor", Email: "ben@example.com", LoyaltyTier: "silver"},
		{CustomerID: "CUST-003", Name: "Chen Wei", Email: "chen@example.com"},
	}
	for _, c := range customers {
		if err := repo.PutCustomer(ctx, c); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
	}

	order := types.Order{OrderID: "PO-SKU-002-seed0001", SKU: "SKU-002", Quantity: 30, Status: types.OrderStatusPending}
	if err := repo.PutOrder(ctx, order); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	shifts := []types.StaffShift{
		{ScheduleID: "SCH-MON-1", StaffName: "Dana", Role: "Stock Clerk", Day: "monday", Shift: "06:00-14:00"},
		{ScheduleID: "SCH-MON-2", StaffName: "Eli", Role: "Cashier", Day: "monday", Shift: "14:00-22:00"},
		{ScheduleID: "SCH-TUE-1", StaffName: "Fatima", Role: "Baker", Day: "tuesday", Shift: "04:00-12:00"},
	}
	for _, s := range shifts {
		if err := repo.PutStaffShift(ctx, s); err != nil {
			return fmt.Errorf("seed staff schedules: %w", err)
		}
	}
	return nil
}
