package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/storeops/internal/types"
)

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListLowStock(r.Context())
	if err != nil {
		s.storeError(w, "list low stock", err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

func (s *Server) handleAllInventory(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListInventory(r.Context())
	if err != nil {
		s.storeError(w, "list inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

func (s *Server) handleAllEquipment(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListEquipment(r.Context())
	if err != nil {
		s.storeError(w, "list equipment", err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

func (s *Server) handleAllOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.storeError(w, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

func (s *Server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListOrders(r.Context(), types.OrderStatusPending)
	if err != nil {
		s.storeError(w, "list pending orders", err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.GetCustomer(r.Context(), types.CustomerID(r.PathValue("id")))
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		s.storeError(w, "get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	slog.Error("store query failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, op+" failed")
}
