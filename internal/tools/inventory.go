package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/storeops/internal/types"
)

// DefaultReorderThreshold applies when put_inventory omits one.
const DefaultReorderThreshold = 10

func (c *Catalogue) getInventory(ctx context.Context, args Args) (string, error) {
	sku := args.String("sku", "value")
	if sku == "" {
		return "", errMissing(`{"sku": "SKU-001"}`)
	}
	item, err := c.repo.GetInventory(ctx, sku)
	if errors.Is(err, types.ErrNotFound) {
		return "No inventory found for SKU: " + sku, nil
	}
	if err != nil {
		return "", fmt.Errorf("read inventory %s: %w", sku, err)
	}
	return fmt.Sprintf("SKU: %s, Name: %s, Quantity: %d %s, Reorder threshold: %d",
		item.SKU, item.Name, item.Quantity, item.UnitOrDefault(), item.ReorderThreshold), nil
}

func (c *Catalogue) listInventory(ctx context.Context, _ Args) (string, error) {
	items, err := c.repo.ListInventory(ctx)
	if err != nil {
		return "", fmt.Errorf("list inventory: %w", err)
	}
	if len(items) == 0 {
		return "No inventory items.", nil
	}
	var b strings.Builder
	b.WriteString("Inventory:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s (%s): %d %s (threshold %d)",
			item.SKU, item.Name, item.Quantity, item.UnitOrDefault(), item.ReorderThreshold)
	}
	return b.String(), nil
}

func (c *Catalogue) listLowStock(ctx context.Context, _ Args) (string, error) {
	items, err := c.repo.ListLowStock(ctx)
	if err != nil {
		return "", fmt.Errorf("list low stock: %w", err)
	}
	if len(items) == 0 {
		return "No low-stock items.", nil
	}
	var b strings.Builder
	b.WriteString("Low stock:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s (%s): %d (threshold %d)", item.SKU, item.Name, item.Quantity, item.ReorderThreshold)
	}
	return b.String(), nil
}

func (c *Catalogue) putInventory(ctx context.Context, args Args) (string, error) {
	sku := args.String("sku")
	name := args.String("name")
	qty, ok := args.Int("quantity")
	if sku == "" || name == "" || !ok {
		return "", errMissing(`{"sku": "SKU-001", "name": "Organic Milk 1L", "quantity": 40}`)
	}
	threshold, ok := args.Int("reorder_threshold")
	if !ok {
		threshold = DefaultReorderThreshold
	}
	item := types.InventoryItem{
		SKU:              sku,
		Name:             name,
		Quantity:         qty,
		Unit:             args.String("unit"),
		ReorderThreshold: threshold,
	}
	if err := c.repo.PutInventory(ctx, item); err != nil {
		return "", fmt.Errorf("write inventory %s: %w", sku, err)
	}
	return fmt.Sprintf("Updated %s (%s): quantity=%d, reorder_threshold=%d", sku, name, qty, threshold), nil
}

func (c *Catalogue) createOrder(ctx context.Context, args Args) (string, error) {
	sku := args.String("sku")
	qty, ok := args.Int("quantity")
	if sku == "" || !ok {
		return "", errMissing(`{"sku": "SKU-001", "quantity": 40}`)
	}
	if qty <= 0 {
		return "", fmt.Errorf("quantity must be positive, got %d", qty)
	}
	order, err := c.repo.CreateOrder(ctx, sku, qty)
	if err != nil {
		return "", fmt.Errorf("create order for %s: %w", sku, err)
	}
	return fmt.Sprintf("Created order %s for SKU %s, quantity %d.", order.OrderID, sku, qty), nil
}

// createOrdersForLowStock orders twice the reorder threshold of every
// low-stock item.
func (c *Catalogue) createOrdersForLowStock(ctx context.Context, _ Args) (string, error) {
	items, err := c.repo.ListLowStock(ctx)
	if err != nil {
		return "", fmt.Errorf("list low stock: %w", err)
	}
	if len(items) == 0 {
		return "No low-stock items found. No orders created.", nil
	}
	var created []string
	for _, item := range items {
		qty := 2 * item.ReorderThreshold
		if qty <= 0 {
			qty = 2 * DefaultReorderThreshold
		}
		order, err := c.repo.CreateOrder(ctx, item.SKU, qty)
		if err != nil {
			if len(created) == 0 {
				return "", fmt.Errorf("create order for %s: %w", item.SKU, err)
			}
			return "", fmt.Errorf("create order for %s: %w; orders already created:\n%s",
				item.SKU, err, strings.Join(created, "\n"))
		}
		created = append(created, fmt.Sprintf("- %s: %s (%s), qty=%d", order.OrderID, item.SKU, item.Name, qty))
	}
	return "Created purchase orders for all low-stock items:\n" + strings.Join(created, "\n"), nil
}
