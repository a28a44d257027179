package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/karahi-ops/api/internal/handler"
	"github.com/karahi-ops/api/internal/middleware"
)

type mockPickListStore struct {
	getOrderByIDFn          func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrderItemsByOrderFn func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	getBranchFn             func(ctx context.Context, id uuid.UUID) (database.Branch, error)
	deleteOrderHistoryFn    func(ctx context.Context, before pgtype.Timestamptz) (int64, error)
}

func (m *mockPickListStore) GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderByIDFn != nil {
		return m.getOrderByIDFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockPickListStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listOrderItemsByOrderFn != nil {
		return m.listOrderItemsByOrderFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

func (m *mockPickListStore) GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error) {
	if m.getBranchFn != nil {
		return m.getBranchFn(ctx, id)
	}
	return database.Branch{}, pgx.ErrNoRows
}

func (m *mockPickListStore) DeleteOrderHistory(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	if m.deleteOrderHistoryFn != nil {
		return m.deleteOrderHistoryFn(ctx, before)
	}
	return 0, nil
}

func setupPickListRouter(store *mockPickListStore) *chi.Mux {
	h := handler.NewPickListHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/kitchen", h.RegisterRoutes)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r
}

func TestPickListBuild_AggregatesAcrossOrders(t *testing.T) {
	claims := kitchenClaims()

	branch1 := uuid.New()
	branch2 := uuid.New()
	order1 := testDBOrder(branch1, enum.OrderStatusSentToKitchen)
	order2 := testDBOrder(branch2, enum.OrderStatusSentToKitchen)
	order2.OrderNo = "ORD-20260831-002"

	orders := map[uuid.UUID]database.Order{order1.ID: order1, order2.ID: order2}
	branches := map[uuid.UUID]string{branch1: "Gulberg", branch2: "DHA"}

	rice1 := testDBOrderItem(order1.ID)
	rice1.OrderQty = testNumeric("5")
	rice2 := testDBOrderItem(order2.ID)
	rice2.OrderQty = testNumeric("3")

	store := &mockPickListStore{
		getOrderByIDFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			o, ok := orders[id]
			if !ok {
				return database.Order{}, pgx.ErrNoRows
			}
			return o, nil
		},
		listOrderItemsByOrderFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			if orderID == order1.ID {
				return []database.OrderItem{rice1}, nil
			}
			return []database.OrderItem{rice2}, nil
		},
		getBranchFn: func(ctx context.Context, id uuid.UUID) (database.Branch, error) {
			return database.Branch{ID: id, Name: branches[id]}, nil
		},
	}
	router := setupPickListRouter(store)

	rr := doAuthRequest(t, router, "POST", "/kitchen/picklist", map[string]interface{}{
		"order_ids": []string{order1.ID.String(), order2.ID.String()},
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var entries []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	if entries[0]["total_qty"] != "8" {
		t.Errorf("total_qty: got %v, want 8", entries[0]["total_qty"])
	}
	contributions := entries[0]["orders"].([]interface{})
	if len(contributions) != 2 {
		t.Fatalf("contributions: got %d, want 2", len(contributions))
	}
	first := contributions[0].(map[string]interface{})
	if first["branch"] != "Gulberg" {
		t.Errorf("branch: got %v, want Gulberg", first["branch"])
	}
}

func TestPickListBuild_EmptySelection(t *testing.T) {
	claims := kitchenClaims()
	router := setupPickListRouter(&mockPickListStore{})

	rr := doAuthRequest(t, router, "POST", "/kitchen/picklist", map[string]interface{}{
		"order_ids": []string{},
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestPickListBuild_UnknownOrder(t *testing.T) {
	claims := kitchenClaims()
	router := setupPickListRouter(&mockPickListStore{})

	rr := doAuthRequest(t, router, "POST", "/kitchen/picklist", map[string]interface{}{
		"order_ids": []string{uuid.NewString()},
	}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}

func TestDeleteHistory_PassesCutoff(t *testing.T) {
	claims := kitchenClaims()
	claims.Role = enum.UserRoleAdmin

	store := &mockPickListStore{
		deleteOrderHistoryFn: func(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
			if !before.Valid {
				t.Error("cutoff should be set")
			}
			return 12, nil
		},
	}
	router := setupPickListRouter(store)

	rr := doAuthRequest(t, router, "DELETE", "/admin/orders/history?before=2026-01-01T00:00:00Z", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["deleted"] != float64(12) {
		t.Errorf("deleted: got %v, want 12", resp["deleted"])
	}
}

func TestDeleteHistory_InvalidCutoff(t *testing.T) {
	claims := kitchenClaims()
	claims.Role = enum.UserRoleAdmin
	router := setupPickListRouter(&mockPickListStore{})

	rr := doAuthRequest(t, router, "DELETE", "/admin/orders/history?before=yesterday", nil, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}
