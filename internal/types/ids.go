// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

type RunID string
type OrderID string
type EquipmentID string
type CustomerID string

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// NewOrderID returns a purchase order ID of the form PO-<sku>-<8 hex chars>.
func NewOrderID(sku string) OrderID {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return OrderID("PO-" + sku + "-" + hex[:8])
}

// NewExecutionHandle joins a state machine name and a run ID into an
// opaque workflow execution handle.
func NewExecutionHandle(stateMachine string, id RunID) string {
	return stateMachine + ":" + string(id)
}

// ParseExecutionHandle splits a handle created by NewExecutionHandle.
func ParseExecutionHandle(handle string) (stateMachine string, id RunID, ok bool) {
	i := strings.LastIndex(handle, ":")
	if i <= 0 || i == len(handle)-1 {
		return "", "", false
	}
	return handle[:i], RunID(handle[i+1:]), true
}
