package tools

import (
	"errors"

	"github.com/user/storeops/internal/state"
)

// Catalogue is the set of store-operations tools over one repository.
type Catalogue struct {
	repo *state.Repository
}

func NewCatalogue(repo *state.Repository) *Catalogue {
	return &Catalogue{repo: repo}
}

// Register adds every catalogue tool to r.
func (c *Catalogue) Register(r *Registry) {
	for _, t := range c.Tools() {
		r.Register(t)
	}
}

// Tools returns the catalogue tools.
func (c *Catalogue) Tools() []Tool {
	return []Tool{
		NewFunc("get_inventory", "Look up one SKU's stock level and reorder threshold.", skuParams, c.getInventory),
		NewFunc("list_inventory", "List every inventory item.", "", c.listInventory),
		NewFunc("list_low_stock", "List items at or below their reorder threshold.", "", c.listLowStock),
		NewFunc("put_inventory", "Create or update an inventory item.", putInventoryParams, c.putInventory),
		NewFunc("create_order", "Create a purchase order for one SKU.", createOrderParams, c.createOrder),
		NewFunc("create_orders_for_low_stock", "Create purchase orders for every low-stock item.", "", c.createOrdersForLowStock),
		NewFunc("pricing_suggestion", "Suggest a pricing action for one SKU.", skuParams, c.pricingSuggestion),
		NewFunc("pricing_report", "Suggest pricing actions for every SKU.", "", c.pricingReport),
		NewFunc("list_equipment", "List store equipment with health scores.", "", c.listEquipment),
		NewFunc("equipment_status", "Report one piece of equipment's maintenance status.", equipmentParams, c.equipmentStatus),
		NewFunc("equipment_status_report", "Report maintenance status for all equipment.", "", c.equipmentStatusReport),
		NewFunc("customer_info", "Look up a customer's profile and suggested offer.", customerParams, c.customerInfo),
		NewFunc("loyalty_tier", "Look up a customer's loyalty tier and suggested offer.", customerParams, c.loyaltyTier),
		NewFunc("loyalty_guide", "Describe the offers for every loyalty tier.", "", c.loyaltyGuide),
		NewFunc("pending_deliveries", "List pending purchase orders awaiting delivery.", "", c.pendingDeliveries),
		NewFunc("suggest_route", "Suggest a route over pending deliveries.", "", c.suggestRoute),
		NewFunc("staff_schedule", "List staff shifts, optionally for one day.", dayParams, c.staffSchedule),
	}
}

const (
	skuParams          = `{"type":"object","properties":{"sku":{"type":"string"}},"required":["sku"]}`
	equipmentParams    = `{"type":"object","properties":{"equipment_id":{"type":"string"}},"required":["equipment_id"]}`
	customerParams     = `{"type":"object","properties":{"customer_id":{"type":"string"}},"required":["customer_id"]}`
	dayParams          = `{"type":"object","properties":{"day":{"type":"string"}}}`
	createOrderParams  = `{"type":"object","properties":{"sku":{"type":"string"},"quantity":{"type":"integer"}},"required":["sku","quantity"]}`
	putInventoryParams = `{"type":"object","properties":{"sku":{"type":"string"},"name":{"type":"string"},"quantity":{"type":"integer"},"reorder_threshold":{"type":"integer"},"unit":{"type":"string"}},"required":["sku","name","quantity"]}`
)

// errMissing builds the error returned when a required argument is absent.
func errMissing(example string) error {
	return errors.New("missing required input. Example: " + example)
}
