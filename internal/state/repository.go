// internal/state/repository.go
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/storeops/internal/types"
)

// Tables names the store tables used by the repository.
type Tables struct {
	Inventory      types.Table
	Orders         types.Table
	Equipment      types.Table
	Customers      types.Table
	StaffSchedules types.Table
}

// DefaultTables returns the standard table layout.
func DefaultTables() Tables {
	return NewTables("store-inventory", "store-orders", "store-equipment", "store-customers", "store-staff-schedules")
}

// NewTables builds a table layout from table names.
func NewTables(inventory, orders, equipment, customers, staff string) Tables {
	return Tables{
		Inventory:      types.Table{Name: inventory, Key: "sku"},
		Orders:         types.Table{Name: orders, Key: "order_id"},
		Equipment:      types.Table{Name: equipment, Key: "equipment_id"},
		Customers:      types.Table{Name: customers, Key: "customer_id"},
		StaffSchedules: types.Table{Name: staff, Key: "schedule_id"},
	}
}

// Repository gives typed access to the store-operations tables.
type Repository struct {
	store  types.Store
	tables Tables
	now    func() time.Time
}

func NewRepository(store types.Store, tables Tables) *Repository {
	return &Repository{store: store, tables: tables, now: time.Now}
}

// Store returns the underlying key-value store.
func (r *Repository) Store() types.Store { return r.store }

func (r *Repository) GetInventory(ctx context.Context, sku string) (*types.InventoryItem, error) {
	var item types.InventoryItem
	if err := r.get(ctx, r.tables.Inventory, sku, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) PutInventory(ctx context.Context, item types.InventoryItem) error {
	item.UpdatedAt = r.now().UTC()
	return r.put(ctx, r.tables.Inventory, item)
}

func (r *Repository) ListInventory(ctx context.Context) ([]types.InventoryItem, error) {
	return scanAs[types.InventoryItem](ctx, r.store, r.tables.Inventory, nil)
}

// ListLowStock returns items whose quantity is at or below their reorder threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]types.InventoryItem, error) {
	items, err := r.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]types.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// SetQuantity updates the quantity of an existing item.
func (r *Repository) SetQuantity(ctx context.Context, sku string, quantity int) (*types.InventoryItem, error) {
	item, err := r.GetInventory(ctx, sku)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := r.PutInventory(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateOrder records a pending purchase order for sku.
func (r *Repository) CreateOrder(ctx context.Context, sku string, quantity int) (*types.Order, error) {
	order := types.Order{
		OrderID:   types.NewOrderID(sku),
		SKU:       sku,
		Quantity:  quantity,
		Status:    types.OrderStatusPending,
		CreatedAt: r.now().UTC(),
	}
	if err := r.put(ctx, r.tables.Orders, order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) GetOrder(ctx context.Context, id types.OrderID) (*types.Order, error) {
	var order types.Order
	if err := r.get(ctx, r.tables.Orders, string(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) PutOrder(ctx context.Context, order types.Order) error {
	return r.put(ctx, r.tables.Orders, order)
}

// ListOrders returns orders, optionally restricted to one status.
func (r *Repository) ListOrders(ctx context.Context, status string) ([]types.Order, error) {
	var filter *types.Filter
	if status != "" {
		filter = &types.Filter{Field: "order_status", Equals: status}
	}
	return scanAs[types.Order](ctx, r.store, r.tables.Orders, filter)
}

func (r *Repository) GetEquipment(ctx context.Context, id types.EquipmentID) (*types.Equipment, error) {
	var eq types.Equipment
	if err := r.get(ctx, r.tables.Equipment, string(id), &eq); err != nil {
		return nil, err
	}
	return &eq, nil
}

func (r *Repository) PutEquipment(ctx context.Context, eq types.Equipment) error {
	return r.put(ctx, r.tables.Equipment, eq)
}

func (r *Repository) ListEquipment(ctx context.Context) ([]types.Equipment, error) {
	return scanAs[types.Equipment](ctx, r.store, r.tables.Equipment, nil)
}

// UpdateEquipmentHealth records a health reading, creating the equipment
// entry if it is unknown. Metrics are merged into the existing ones.
func (r *Repository) UpdateEquipmentHealth(ctx context.Context, id types.EquipmentID, health float64, metrics map[string]any) (*types.Equipment, error) {
	eq, err := r.GetEquipment(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		eq = &types.Equipment{EquipmentID: id, Name: string(id)}
	} else if err != nil {
		return nil, err
	}

	eq.HealthScore = health
	if len(metrics) > 0 {
		if eq.Metrics == nil {
			eq.Metrics = make(map[string]any, len(metrics))
		}
		for k, v := range metrics {
			eq.Metrics[k] = v
		}
	}
	if err := r.PutEquipment(ctx, *eq); err != nil {
		return nil, err
	}
	return eq, nil
}

func (r *Repository) GetCustomer(ctx context.Context, id types.CustomerID) (*types.Customer, error) {
	var c types.Customer
	if err := r.get(ctx, r.tables.Customers, string(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) PutCustomer(ctx context.Context, c types.Customer) error {
	return r.put(ctx, r.tables.Customers, c)
}

// ListStaffShifts returns the staff rota, optionally for one day.
func (r *Repository) ListStaffShifts(ctx context.Context, day string) ([]types.StaffShift, error) {
	var filter *types.Filter
	if day != "" {
		filter = &types.Filter{Field: "schedule_day", Equals: day}
	}
	return scanAs[types.StaffShift](ctx, r.store, r.tables.StaffSchedules, filter)
}

func (r *Repository) PutStaffShift(ctx context.Context, s types.StaffShift) error {
	return r.put(ctx, r.tables.StaffSchedules, s)
}

func (r *Repository) get(ctx context.Context, table types.Table, key string, v any) error {
	rec, err := r.store.Get(ctx, table, key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get %s/%s: %w", table.Name, key, err)
	}
	return types.FromRecord(rec, v)
}

func (r *Repository) put(ctx context.Context, table types.Table, v any) error {
	rec, err := types.ToRecord(v)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, table, rec); err != nil {
		return fmt.Errorf("put %s: %w", table.Name, err)
	}
	return nil
}

func scanAs[T any](ctx context.Context, store types.Store, table types.Table, filter *types.Filter) ([]T, error) {
	recs, err := store.Scan(ctx, table, filter)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table.Name, err)
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := types.FromRecord(rec, &v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", table.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
