package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/service"
)

// PickListStore defines the database methods needed to assemble a pick list.
// Satisfied by *database.Queries; narrow interface for testability.
type PickListStore interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	DeleteOrderHistory(ctx context.Context, before pgtype.Timestamptz) (int64, error)
}

// PickListHandler handles the kitchen's aggregation and cleanup endpoints.
type PickListHandler struct {
	store PickListStore
}

// NewPickListHandler creates a new PickListHandler.
func NewPickListHandler(store PickListStore) *PickListHandler {
	return &PickListHandler{store: store}
}

// RegisterRoutes registers the pick list endpoint. Mounted behind a kitchen
// or admin role check.
func (h *PickListHandler) RegisterRoutes(r chi.Router) {
	r.Post("/picklist", h.Build)
}

// RegisterAdminRoutes registers the bulk history cleanup. Admin only.
func (h *PickListHandler) RegisterAdminRoutes(r chi.Router) {
	r.Delete("/orders/history", h.DeleteHistory)
}

type pickListRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// Build aggregates demand across the selected orders. The pick list is
// derived on every request and never persisted.
func (h *PickListHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req pickListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_ids are required"})
		return
	}

	branchNames := make(map[uuid.UUID]string)
	selected := make([]service.PickListOrder, 0, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID: " + raw})
			return
		}

		order, err := h.store.GetOrderByID(r.Context(), orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found: " + raw})
				return
			}
			log.Printf("ERROR: picklist get order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
		if err != nil {
			log.Printf("ERROR: picklist list items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		name, ok := branchNames[order.BranchID]
		if !ok {
			branch, err := h.store.GetBranch(r.Context(), order.BranchID)
			if err != nil {
				log.Printf("ERROR: picklist get branch: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			name = branch.Name
			branchNames[order.BranchID] = name
		}

		selected = append(selected, service.PickListOrder{
			OrderNo:    order.OrderNo,
			BranchName: name,
			Items:      items,
		})
	}

	writeJSON(w, http.StatusOK, service.BuildPickList(selected))
}

// DeleteHistory bulk-deletes terminal orders, optionally only those created
// before the given RFC3339 cutoff.
func (h *PickListHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	before := pgtype.Timestamptz{}
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid before"})
			return
		}
		before = pgtype.Timestamptz{Time: t, Valid: true}
	}

	deleted, err := h.store.DeleteOrderHistory(r.Context(), before)
	if err != nil {
		log.Printf("ERROR: delete order history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
