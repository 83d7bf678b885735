package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/storeops/internal/types"
)

// PricingLevel classifies stock relative to the reorder threshold.
type PricingLevel string

const (
	PricingLow    PricingLevel = "LOW"
	PricingNormal PricingLevel = "NORMAL"
	PricingHigh   PricingLevel = "HIGH"
)

// ClassifyPricing returns LOW at or below the threshold, HIGH above three
// times the threshold and NORMAL otherwise, with the matching action.
func ClassifyPricing(item types.InventoryItem) (PricingLevel, string) {
	switch {
	case item.Quantity <= item.ReorderThreshold:
		return PricingLow, "Raise price or limit discounts to preserve margin."
	case item.Quantity > 3*item.ReorderThreshold:
		return PricingHigh, "Run promotion or temporary discount to move inventory."
	default:
		return PricingNormal, "Maintain current pricing; monitor demand."
	}
}

func formatPricing(item types.InventoryItem) string {
	level, action := ClassifyPricing(item)
	return fmt.Sprintf("%s (%s): stock %s (qty=%d, threshold=%d). Suggestion: %s",
		item.SKU, item.Name, level, item.Quantity, item.ReorderThreshold, action)
}

func (c *Catalogue) pricingSuggestion(ctx context.Context, args Args) (string, error) {
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
	return formatPricing(*item), nil
}

func (c *Catalogue) pricingReport(ctx context.Context, _ Args) (string, error) {
	items, err := c.repo.ListInventory(ctx)
	if err != nil {
		return "", fmt.Errorf("list inventory: %w", err)
	}
	if len(items) == 0 {
		return "No inventory items to price.", nil
	}
	var b strings.Builder
	b.WriteString("Pricing suggestions:")
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(formatPricing(item))
	}
	return b.String(), nil
}
