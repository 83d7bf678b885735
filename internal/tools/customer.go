package tools

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/user/storeops/internal/types"
)

// LoyaltyTiers lists the known tiers in display order.
var LoyaltyTiers = []string{"bronze", "silver", "gold"}

var loyaltyOffers = map[string]string{
	"bronze":   "Offer 5% discount on next purchase or free shipping on orders over $50.",
	"silver":   "Offer 10% discount, early access to sales, or a free gift on orders over $100.",
	"gold":     "Offer 15% discount, priority support, exclusive deals, and free express shipping.",
	"standard": "Welcome offer: sign up for loyalty program to unlock bronze tier benefits.",
}

// LoyaltyOffer returns the suggested offer for tier. Unknown or empty tiers
// get the standard welcome offer.
func LoyaltyOffer(tier string) string {
	if offer, ok := loyaltyOffers[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return offer
	}
	return loyaltyOffers["standard"]
}

func tierOf(c types.Customer) string {
	if c.LoyaltyTier == "" {
		return "standard"
	}
	return strings.ToLower(c.LoyaltyTier)
}

func (c *Catalogue) lookupCustomer(ctx context.Context, args Args) (*types.Customer, string, error) {
	id := args.String("customer_id", "value")
	if id == "" {
		return nil, "", errMissing(`{"customer_id": "CUST-001"}`)
	}
	cust, err := c.repo.GetCustomer(ctx, types.CustomerID(id))
	if errors.Is(err, types.ErrNotFound) {
		return nil, "No customer found with ID: " + id, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read customer %s: %w", id, err)
	}
	return cust, "", nil
}

func (c *Catalogue) customerInfo(ctx context.Context, args Args) (string, error) {
	cust, miss, err := c.lookupCustomer(ctx, args)
	if cust == nil {
		return miss, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Customer %s: %s", cust.CustomerID, cust.Name)
	if cust.Email != "" {
		fmt.Fprintf(&b, " <%s>", cust.Email)
	}
	fmt.Fprintf(&b, ", tier=%s", tierOf(*cust))
	if len(cust.Preferences) > 0 {
		parts := make([]string, 0, len(cust.Preferences))
		for _, k := range slices.Sorted(maps.Keys(cust.Preferences)) {
			parts = append(parts, k+"="+types.Scalar(cust.Preferences[k]))
		}
		fmt.Fprintf(&b, ", preferences: %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, ". Suggested offer: %s", LoyaltyOffer(cust.LoyaltyTier))
	return b.String(), nil
}

func (c *Catalogue) loyaltyTier(ctx context.Context, args Args) (string, error) {
	cust, miss, err := c.lookupCustomer(ctx, args)
	if cust == nil {
		return miss, err
	}
	return fmt.Sprintf("Customer %s (%s) is %s tier. %s",
		cust.CustomerID, cust.Name, tierOf(*cust), LoyaltyOffer(cust.LoyaltyTier)), nil
}

func (c *Catalogue) loyaltyGuide(context.Context, Args) (string, error) {
	var b strings.Builder
	b.WriteString("Loyalty offers:")
	for _, tier := range append(slices.Clone(LoyaltyTiers), "standard") {
		fmt.Fprintf(&b, "\n- %s: %s", tier, loyaltyOffers[tier])
	}
	return b.String(), nil
}
