package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/types"
)

func seededRegistry(t *testing.T) (*Registry, *state.Repository) {
	t.Helper()
	repo := state.NewRepository(state.NewMemoryStore(), state.DefaultTables())
	require.NoError(t, state.Seed(context.Background(), repo))
	reg := NewRegistry()
	NewCatalogue(repo).Register(reg)
	return reg, repo
}

func call(t *testing.T, reg *Registry, name string, raw any) string {
	t.Helper()
	out, err := reg.Call(context.Background(), name, raw)
	require.NoError(t, err)
	return out
}

func TestCatalogueRegistersAllTools(t *testing.T) {
	reg, _ := seededRegistry(t)
	assert.Len(t, reg.All(), 17)
	for _, tool := range reg.All() {
		assert.NotEmpty(t, tool.Description(), tool.Name())
		assert.Contains(t, string(tool.Parameters()), `"type":"object"`)
	}
}

func TestGetInventory(t *testing.T) {
	reg, _ := seededRegistry(t)

	assert.Equal(t, "SKU: SKU-001, Name: Organic Milk 1L, Quantity: 8 cartons, Reorder threshold: 20",
		call(t, reg, "get_inventory", "sku=SKU-001"))
	assert.Equal(t, call(t, reg, "get_inventory", "sku=SKU-001"), call(t, reg, "get_inventory", "SKU-001"))
	assert.Equal(t, "No inventory found for SKU: SKU-404", call(t, reg, "get_inventory", "sku=SKU-404"))
	assert.True(t, strings.HasPrefix(call(t, reg, "get_inventory", ""), "Error: missing required input"))
}

func TestListLowStock(t *testing.T) {
	reg, repo := seededRegistry(t)

	assert.Equal(t, "Low stock:\n- SKU-001 (Organic Milk 1L): 8 (threshold 20)", call(t, reg, "list_low_stock", nil))

	_, err := repo.SetQuantity(context.Background(), "SKU-001", 100)
	require.NoError(t, err)
	assert.Equal(t, "No low-stock items.", call(t, reg, "list_low_stock", nil))
}

func TestPutInventoryDefaultsThreshold(t *testing.T) {
	reg, repo := seededRegistry(t)

	out := call(t, reg, "put_inventory", "sku=SKU-009 name=Butter quantity=4")
	assert.Equal(t, "Updated SKU-009 (Butter): quantity=4, reorder_threshold=10", out)

	item, err := repo.GetInventory(context.Background(), "SKU-009")
	require.NoError(t, err)
	assert.Equal(t, DefaultReorderThreshold, item.ReorderThreshold)
	assert.True(t, item.LowStock())
}

func TestCreateOrder(t *testing.T) {
	reg, repo := seededRegistry(t)

	out := call(t, reg, "create_order", map[string]any{"sku": "SKU-003", "quantity": 12})
	assert.Contains(t, out, "for SKU SKU-003, quantity 12.")

	orders, err := repo.ListOrders(context.Background(), types.OrderStatusPending)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	assert.Equal(t, "Error: quantity must be positive, got 0", call(t, reg, "create_order", "sku=SKU-003 quantity=0"))
}

func TestCreateOrdersForLowStock(t *testing.T) {
	reg, repo := seededRegistry(t)

	out := call(t, reg, "create_orders_for_low_stock", nil)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Created purchase orders for all low-stock items:", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "- PO-SKU-001-"))
	assert.True(t, strings.HasSuffix(lines[1], ": SKU-001 (Organic Milk 1L), qty=40"))

	orders, err := repo.ListOrders(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	_, err = repo.SetQuantity(context.Background(), "SKU-001", 50)
	require.NoError(t, err)
	assert.Equal(t, "No low-stock items found. No orders created.", call(t, reg, "create_orders_for_low_stock", nil))
}

// orderFailStore fails order writes once armed, after the first allowed ones.
type orderFailStore struct {
	types.Store
	armed   bool
	allowed int
}

func (s *orderFailStore) Put(ctx context.Context, table types.Table, rec types.Record) error {
	if s.armed && table.Name == state.DefaultTables().Orders.Name {
		if s.allowed == 0 {
			return errors.New("write throttled")
		}
		s.allowed--
	}
	return s.Store.Put(ctx, table, rec)
}

func TestCreateOrdersForLowStockPartialFailure(t *testing.T) {
	store := &orderFailStore{Store: state.NewMemoryStore(), allowed: 1}
	repo := state.NewRepository(store, state.DefaultTables())
	require.NoError(t, state.Seed(context.Background(), repo))
	_, err := repo.SetQuantity(context.Background(), "SKU-002", 3)
	require.NoError(t, err)
	reg := NewRegistry()
	NewCatalogue(repo).Register(reg)
	store.armed = true

	out := call(t, reg, "create_orders_for_low_stock", nil)
	assert.True(t, strings.HasPrefix(out, "Error: create order for SKU-002: "), out)
	assert.Contains(t, out, "write throttled")
	assert.Contains(t, out, "orders already created:\n- PO-SKU-001-")
	assert.Contains(t, out, ": SKU-001 (Organic Milk 1L), qty=40")
}

func TestClassifyPricing(t *testing.T) {
	tests := []struct {
		qty, threshold int
		want           PricingLevel
	}{
		{8, 20, PricingLow},
		{20, 20, PricingLow},
		{21, 20, PricingNormal},
		{60, 20, PricingNormal},
		{61, 20, PricingHigh},
	}
	for _, tt := range tests {
		level, action := ClassifyPricing(types.InventoryItem{Quantity: tt.qty, ReorderThreshold: tt.threshold})
		assert.Equal(t, tt.want, level, "qty=%d threshold=%d", tt.qty, tt.threshold)
		assert.NotEmpty(t, action)
	}
}

func TestPricingReport(t *testing.T) {
	reg, _ := seededRegistry(t)

	out := call(t, reg, "pricing_report", nil)
	assert.Contains(t, out, "SKU-001 (Organic Milk 1L): stock LOW (qty=8, threshold=20). Suggestion: Raise price or limit discounts to preserve margin.")
	assert.Contains(t, out, "SKU-002 (Sourdough Loaf): stock NORMAL")
	assert.Contains(t, out, "SKU-003 (Free Range Eggs (12)): stock HIGH")
	assert.Contains(t, call(t, reg, "pricing_suggestion", "SKU-003"), "Run promotion or temporary discount to move inventory.")
}

func TestEquipmentStatus(t *testing.T) {
	reg, _ := seededRegistry(t)

	assert.Equal(t, "EQ-FRIDGE-01 (Dairy Refrigerator): health=0.42, last maintenance 2026-01-15. Schedule maintenance soon.",
		call(t, reg, "equipment_status", "equipment_id=EQ-FRIDGE-01"))
	assert.Contains(t, call(t, reg, "equipment_status", "EQ-OVEN-01"), "Status OK.")
	assert.Equal(t, "No equipment found with ID: EQ-X", call(t, reg, "equipment_status", "EQ-X"))

	report := call(t, reg, "equipment_status_report", nil)
	assert.True(t, strings.HasSuffix(report, "1 of 2 need maintenance."))
}

func TestCustomerTools(t *testing.T) {
	reg, _ := seededRegistry(t)

	info := call(t, reg, "customer_info", "customer_id=CUST-001")
	assert.Contains(t, info, "Customer CUST-001: Ana Silva <ana@example.com>, tier=gold")
	assert.Contains(t, info, "preferences: favorite_category=bakery")
	assert.Contains(t, info, LoyaltyOffer("gold"))

	assert.Equal(t, "Customer CUST-003 (Chen Wei) is standard tier. "+LoyaltyOffer(""),
		call(t, reg, "loyalty_tier", "CUST-003"))
	assert.Equal(t, "No customer found with ID: CUST-999", call(t, reg, "loyalty_tier", "CUST-999"))

	guide := call(t, reg, "loyalty_guide", nil)
	for _, tier := range append(LoyaltyTiers, "standard") {
		assert.Contains(t, guide, "- "+tier+": ")
	}
}

func TestLoyaltyOffer(t *testing.T) {
	assert.Equal(t, "Offer 10% discount, early access to sales, or a free gift on orders over $100.", LoyaltyOffer(" Silver "))
	assert.Equal(t, LoyaltyOffer("standard"), LoyaltyOffer("platinum"))
}

func TestSuggestRoute(t *testing.T) {
	reg, repo := seededRegistry(t)
	ctx := context.Background()

	out := call(t, reg, "suggest_route", nil)
	assert.Equal(t, "Suggested route: PO-SKU-002-seed0001\nTip: Group by SKU supplier location to minimize travel distance.", out)

	for range 5 {
		_, err := repo.CreateOrder(ctx, "SKU-003", 10)
		require.NoError(t, err)
	}
	out = call(t, reg, "suggest_route", nil)
	first := strings.SplitN(out, "\n", 2)[0]
	assert.Equal(t, 5, strings.Count(first, " -> "))
	assert.True(t, strings.HasSuffix(first, " -> ..."))

	assert.Contains(t, call(t, reg, "pending_deliveries", nil), "Pending deliveries (6):")
}

func TestStaffSchedule(t *testing.T) {
	reg, _ := seededRegistry(t)

	monday := call(t, reg, "staff_schedule", "day=Monday")
	assert.Contains(t, monday, "Staff schedule for monday:")
	assert.Equal(t, 3, strings.Count(monday, "\n")+1)

	assert.Equal(t, 4, strings.Count(call(t, reg, "staff_schedule", nil), "\n")+1)
	assert.Equal(t, "No shifts scheduled for sunday.", call(t, reg, "staff_schedule", "sunday"))
}
