// internal/types/models.go
package types

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Defaults applied to every run input.
const (
	DefaultStoreID = "store-001"
	DefaultTrigger = "api"
)

// RunInput returns a copy of params with store_id and trigger defaulted.
func RunInput(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	maps.Copy(out, params)
	if out["store_id"] == "" {
		out["store_id"] = DefaultStoreID
	}
	if out["trigger"] == "" {
		out["trigger"] = DefaultTrigger
	}
	return out
}

type InventoryItem struct {
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	Quantity         int       `json:"quantity"`
	Unit             string    `json:"unit,omitempty"`
	ReorderThreshold int       `json:"reorder_threshold"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// LowStock reports whether the quantity is at or below the reorder threshold.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.ReorderThreshold
}

// UnitOrDefault returns the unit label, "units" when unset.
func (i InventoryItem) UnitOrDefault() string {
	if i.Unit == "" {
		return "units"
	}
	return i.Unit
}

const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
)

type Order struct {
	OrderID   OrderID   `json:"order_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"order_status"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type Equipment struct {
	EquipmentID     EquipmentID    `json:"equipment_id"`
	Name            string         `json:"name"`
	HealthScore     float64        `json:"health_score"`
	LastMaintenance string         `json:"last_maintenance,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
}

// MaintenanceThreshold is the health score below which maintenance is due.
const MaintenanceThreshold = 0.5

func (e Equipment) NeedsMaintenance() bool {
	return e.HealthScore < MaintenanceThreshold
}

type Customer struct {
	CustomerID  CustomerID     `json:"customer_id"`
	Name        string         `json:"name"`
	Email       string         `json:"email,omitempty"`
	LoyaltyTier string         `json:"loyalty_tier,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type StaffShift struct {
	ScheduleID string `json:"schedule_id"`
	StaffName  string `json:"staff_name"`
	Role       string `json:"role"`
	Day        string `json:"schedule_day"`
	Shift      string `json:"shift"`
}

// ToRecord converts a typed value into a store record.
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// FromRecord decodes a store record into v.
func FromRecord(rec Record, v any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
