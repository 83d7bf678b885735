package server

import (
	"errors"
	"net/http"

	"github.com/user/storeops/internal/types"
)

type inventoryReading struct {
	SKU      string `json:"sku"`
	Quantity *int   `json:"quantity"`
}

type equipmentReading struct {
	EquipmentID string         `json:"equipment_id"`
	HealthScore *float64       `json:"health_score"`
	Metrics     map[string]any `json:"metrics"`
}

func (s *Server) handleInventoryTelemetry(w http.ResponseWriter, r *http.Request) {
	var in inventoryReading
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if in.SKU == "" || in.Quantity == nil {
		writeError(w, http.StatusBadRequest, "sku and quantity are required")
		return
	}
	if *in.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}
	item, err := s.repo.SetQuantity(r.Context(), in.SKU, *in.Quantity)
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown sku: "+in.SKU)
		return
	}
	if err != nil {
		s.storeError(w, "update inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleEquipmentTelemetry(w http.ResponseWriter, r *http.Request) {
	var in equipmentReading
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if in.EquipmentID == "" || in.HealthScore == nil {
		writeError(w, http.StatusBadRequest, "equipment_id and health_score are required")
		return
	}
	if h := *in.HealthScore; h < 0 || h > 1 {
		writeError(w, http.StatusBadRequest, "health_score must be between 0 and 1")
		return
	}
	eq, err := s.repo.UpdateEquipmentHealth(r.Context(), types.EquipmentID(in.EquipmentID), *in.HealthScore, in.Metrics)
	if err != nil {
		s.storeError(w, "update equipment", err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}
