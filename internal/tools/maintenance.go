package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/storeops/internal/types"
)

func maintenanceStatus(eq types.Equipment) string {
	if eq.NeedsMaintenance() {
		return "Schedule maintenance soon."
	}
	return "Status OK."
}

func formatEquipment(eq types.Equipment) string {
	s := fmt.Sprintf("%s (%s): health=%.2f", eq.EquipmentID, eq.Name, eq.HealthScore)
	if eq.LastMaintenance != "" {
		s += ", last maintenance " + eq.LastMaintenance
	}
	return s
}

func (c *Catalogue) listEquipment(ctx context.Context, _ Args) (string, error) {
	all, err := c.repo.ListEquipment(ctx)
	if err != nil {
		return "", fmt.Errorf("list equipment: %w", err)
	}
	if len(all) == 0 {
		return "No equipment registered.", nil
	}
	var b strings.Builder
	b.WriteString("Equipment:")
	for _, eq := range all {
		b.WriteString("\n- ")
		b.WriteString(formatEquipment(eq))
	}
	return b.String(), nil
}

func (c *Catalogue) equipmentStatus(ctx context.Context, args Args) (string, error) {
	id := args.String("equipment_id", "value")
	if id == "" {
		return "", errMissing(`{"equipment_id": "EQ-FRIDGE-01"}`)
	}
	eq, err := c.repo.GetEquipment(ctx, types.EquipmentID(id))
	if errors.Is(err, types.ErrNotFound) {
		return "No equipment found with ID: " + id, nil
	}
	if err != nil {
		return "", fmt.Errorf("read equipment %s: %w", id, err)
	}
	return formatEquipment(*eq) + ". " + maintenanceStatus(*eq), nil
}

func (c *Catalogue) equipmentStatusReport(ctx context.Context, _ Args) (string, error) {
	all, err := c.repo.ListEquipment(ctx)
	if err != nil {
		return "", fmt.Errorf("list equipment: %w", err)
	}
	if len(all) == 0 {
		return "No equipment registered.", nil
	}
	var b strings.Builder
	b.WriteString("Equipment status:")
	due := 0
	for _, eq := range all {
		if eq.NeedsMaintenance() {
			due++
		}
		fmt.Fprintf(&b, "\n- %s. %s", formatEquipment(eq), maintenanceStatus(eq))
	}
	fmt.Fprintf(&b, "\n%d of %d need maintenance.", due, len(all))
	return b.String(), nil
}
