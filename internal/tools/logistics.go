package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/storeops/internal/types"
)

// routeStops caps how many orders suggest_route lists.
const routeStops = 5

func (c *Catalogue) pendingDeliveries(ctx context.Context, _ Args) (string, error) {
	orders, err := c.repo.ListOrders(ctx, types.OrderStatusPending)
	if err != nil {
		return "", fmt.Errorf("list pending orders: %w", err)
	}
	if len(orders) == 0 {
		return "No pending deliveries.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pending deliveries (%d):", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "\n- %s: %s x%d", o.OrderID, o.SKU, o.Quantity)
	}
	return b.String(), nil
}

func (c *Catalogue) suggestRoute(ctx context.Context, _ Args) (string, error) {
	orders, err := c.repo.ListOrders(ctx, types.OrderStatusPending)
	if err != nil {
		return "", fmt.Errorf("list pending orders: %w", err)
	}
	if len(orders) == 0 {
		return "No pending deliveries to route.", nil
	}
	stops := make([]string, 0, routeStops)
	for _, o := range orders[:min(len(orders), routeStops)] {
		stops = append(stops, string(o.OrderID))
	}
	route := strings.Join(stops, " -> ")
	if len(orders) > routeStops {
		route += " -> ..."
	}
	return fmt.Sprintf("Suggested route: %s\nTip: Group by SKU supplier location to minimize travel distance.", route), nil
}

func (c *Catalogue) staffSchedule(ctx context.Context, args Args) (string, error) {
	day := strings.ToLower(args.String("day", "value"))
	shifts, err := c.repo.ListStaffShifts(ctx, day)
	if err != nil {
		return "", fmt.Errorf("list staff shifts: %w", err)
	}
	if len(shifts) == 0 {
		if day != "" {
			return "No shifts scheduled for " + day + ".", nil
		}
		return "No shifts scheduled.", nil
	}
	var b strings.Builder
	if day != "" {
		fmt.Fprintf(&b, "Staff schedule for %s:", day)
	} else {
		b.WriteString("Staff schedule:")
	}
	for _, s := range shifts {
		fmt.Fprintf(&b, "\n- %s: %s (%s), %s shift", s.Day, s.StaffName, s.Role, s.Shift)
	}
	return b.String(), nil
}
