package pipeline

import (
	"context"
	"strings"
)

// Roles of the default store-operations pipeline, in step order.
const (
	RoleInventory   = "Inventory Manager"
	RolePricing     = "Pricing Analyst"
	RoleMaintenance = "Maintenance Coordinator"
	RoleCustomer    = "Customer Service Representative"
	RoleLogistics   = "Logistics Coordinator"
)

// DefaultRoles returns the roles of DefaultSteps in order.
func DefaultRoles() []string {
	return []string{RoleInventory, RolePricing, RoleMaintenance, RoleCustomer, RoleLogistics}
}

// DefaultSteps returns the store-operations pipeline: restock, pricing,
// maintenance, customer guidance and delivery routing.
func DefaultSteps() []Step {
	return []Step{
		{
			Name:           "inventory",
			Role:           RoleInventory,
			Description:    "Check current inventory, list items at or below their reorder threshold and create purchase orders for them.",
			ExpectedOutput: "A summary of low-stock items and the purchase orders created.",
			Tools:          []string{"get_inventory", "list_low_stock", "create_orders_for_low_stock"},
			Run:            inventoryStep,
		},
		{
			Name:           "pricing",
			Role:           RolePricing,
			Description:    "Review stock levels and recommend raising prices for scarce items and promotions for overstocked ones.",
			ExpectedOutput: "A brief pricing recommendation report by SKU.",
			Tools:          []string{"pricing_report", "pricing_suggestion"},
			Run:            pricingStep,
		},
		{
			Name:           "maintenance",
			Role:           RoleMaintenance,
			Description:    "List equipment health and identify anything below 0.5 that needs maintenance next.",
			ExpectedOutput: "A maintenance priority list with reasons.",
			Tools:          []string{"equipment_status_report"},
			Run:            maintenanceStep,
		},
		{
			Name:           "customer_service",
			Role:           RoleCustomer,
			Description:    "Prepare a staff guide for customer lookup and loyalty offers by tier.",
			ExpectedOutput: "A short staff guide for loyalty and customer lookup.",
			Tools:          []string{"loyalty_guide", "customer_info"},
			Run:            customerStep,
		},
		{
			Name:           "logistics",
			Role:           RoleLogistics,
			Description:    "Check pending deliveries and suggest a route for fulfilling them.",
			ExpectedOutput: "A summary of pending deliveries and suggested route.",
			Tools:          []string{"pending_deliveries", "suggest_route"},
			Run:            logisticsStep,
		},
	}
}

// callAll runs each tool in turn and joins their output.
func callAll(ctx context.Context, sc *StepContext, names ...string) (string, error) {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		out, err := sc.Call(ctx, name, nil)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n"), nil
}

func inventoryStep(ctx context.Context, sc *StepContext) (string, error) {
	sc.Say("Checking inventory for store %s (trigger: %s).", sc.Input["store_id"], sc.Input["trigger"])
	var parts []string
	if sku := sc.Input["sku"]; sku != "" {
		out, err := sc.Call(ctx, "get_inventory", map[string]any{"sku": sku})
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	out, err := callAll(ctx, sc, "list_low_stock", "create_orders_for_low_stock")
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, out), "\n"), nil
}

func pricingStep(ctx context.Context, sc *StepContext) (string, error) {
	sc.Say("Reviewing stock levels for pricing.")
	if sku := sc.Input["sku"]; sku != "" {
		return sc.Call(ctx, "pricing_suggestion", map[string]any{"sku": sku})
	}
	return sc.Call(ctx, "pricing_report", nil)
}

func maintenanceStep(ctx context.Context, sc *StepContext) (string, error) {
	sc.Say("Checking equipment health scores.")
	return sc.Call(ctx, "equipment_status_report", nil)
}

func customerStep(ctx context.Context, sc *StepContext) (string, error) {
	sc.Say("Preparing the loyalty guide for staff.")
	guide, err := sc.Call(ctx, "loyalty_guide", nil)
	if err != nil {
		return "", err
	}
	id := sc.Input["customer_id"]
	if id == "" {
		return guide + "\nLook up a customer with customer_info using their ID, e.g. CUST-001.", nil
	}
	info, err := sc.Call(ctx, "customer_info", map[string]any{"customer_id": id})
	if err != nil {
		return "", err
	}
	return guide + "\n" + info, nil
}

func logisticsStep(ctx context.Context, sc *StepContext) (string, error) {
	sc.Say("Planning deliveries for pending orders.")
	return callAll(ctx, sc, "pending_deliveries", "suggest_route")
}
