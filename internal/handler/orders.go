package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/middleware"
	"github.com/karahi-ops/api/internal/service"
	"github.com/karahi-ops/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	UpdateDraft(ctx context.Context, req service.UpdateDraftRequest) (*service.OrderResult, error)
	Submit(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*service.OrderResult, error)
	Forward(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*service.OrderResult, error)
	Accept(ctx context.Context, orderID uuid.UUID, version int32) (*service.OrderResult, error)
	Reject(ctx context.Context, orderID uuid.UUID, version int32) (*service.OrderResult, error)
	RecordShipment(ctx context.Context, orderID uuid.UUID, version int32, lines []service.ShipmentLine) ([]service.LineReconciliation, error)
	Ship(ctx context.Context, orderID uuid.UUID, version int32) (*service.OrderResult, error)
	RecordReceiving(ctx context.Context, orderID, branchID uuid.UUID, version int32, lines []service.ReceivingLine) ([]service.LineReconciliation, error)
	Receive(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*service.OrderResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListInboundOrders(ctx context.Context, arg database.ListInboundOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Broadcaster pushes lifecycle events to connected dashboards.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToBranch(branchID uuid.UUID, event ws.Event)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers branch-side order endpoints.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.UpdateDraft)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/forward", h.Forward)
	r.Post("/{id}/receiving", h.RecordReceiving)
	r.Post("/{id}/receive", h.Receive)
}

// RegisterKitchenRoutes registers the central kitchen's endpoints. Mounted at
// /kitchen/orders behind a KITCHEN/ADMIN role check.
func (h *OrderHandler) RegisterKitchenRoutes(r chi.Router) {
	r.Get("/", h.ListInbound)
	r.Get("/{id}", h.GetInbound)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/shipment", h.RecordShipment)
	r.Post("/{id}/ship", h.Ship)
}

// --- Request / Response types ---

type createOrderRequest struct {
	SectionID    string                   `json:"section_id"`
	OrderType    string                   `json:"order_type"`
	ScheduleDate string                   `json:"schedule_date"`
	DeliveryDate string                   `json:"delivery_date"`
	Items        []createOrderLineRequest `json:"items"`
}

type createOrderLineRequest struct {
	ItemID string `json:"item_id"`
	Qty    string `json:"qty"`
}

type updateOrderRequest struct {
	Version      int32                    `json:"version"`
	SectionID    string                   `json:"section_id"`
	OrderType    string                   `json:"order_type"`
	ScheduleDate string                   `json:"schedule_date"`
	DeliveryDate string                   `json:"delivery_date"`
	Items        []createOrderLineRequest `json:"items"`
}

type transitionRequest struct {
	Version int32 `json:"version"`
}

type shipmentRequest struct {
	Version int32                 `json:"version"`
	Lines   []shipmentLineRequest `json:"lines"`
}

type shipmentLineRequest struct {
	LineID     string `json:"line_id"`
	ShippedQty string `json:"shipped_qty"`
}

type receivingRequest struct {
	Version int32                  `json:"version"`
	Lines   []receivingLineRequest `json:"lines"`
}

type receivingLineRequest struct {
	LineID       string `json:"line_id"`
	ReceivedQty  string `json:"received_qty"`
	QualityIssue bool   `json:"quality_issue"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNo       string              `json:"order_no"`
	BranchID      uuid.UUID           `json:"branch_id"`
	SectionID     *uuid.UUID          `json:"section_id"`
	OrderType     string              `json:"order_type"`
	Status        string              `json:"status"`
	ScheduleDate  *time.Time          `json:"schedule_date"`
	DeliveryDate  time.Time           `json:"delivery_date"`
	CreatedBy     uuid.UUID           `json:"created_by"`
	CreatedByName string              `json:"created_by_name"`
	Version       int32               `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Position     int32     `json:"position"`
	ItemCode     string    `json:"item_code"`
	ItemName     string    `json:"item_name"`
	Unit         string    `json:"unit"`
	Category     string    `json:"category"`
	SubCategory  *string   `json:"sub_category"`
	OrderQty     string    `json:"order_qty"`
	ShippedQty   *string   `json:"shipped_qty"`
	ReceivedQty  *string   `json:"received_qty"`
	MissingQty   *string   `json:"missing_qty"`
	QualityIssue bool      `json:"quality_issue"`
}

type reconciliationResponse struct {
	Line     orderItemResponse `json:"line"`
	Variance string            `json:"variance"`
	Missing  string            `json:"missing"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		BranchID:      o.BranchID,
		OrderType:     o.OrderType,
		Status:        o.Status,
		DeliveryDate:  o.DeliveryDate,
		CreatedBy:     o.CreatedBy,
		CreatedByName: o.CreatedByName,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.SectionID.Valid {
		sid := uuid.UUID(o.SectionID.Bytes)
		resp.SectionID = &sid
	}
	if o.ScheduleDate.Valid {
		t := o.ScheduleDate.Time
		resp.ScheduleDate = &t
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp
}

func toOrderItemResponse(i database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:           i.ID,
		Position:     i.Position,
		ItemCode:     i.ItemCode,
		ItemName:     i.ItemName,
		Unit:         i.Unit,
		Category:     i.Category,
		OrderQty:     numericString(i.OrderQty),
		QualityIssue: i.QualityIssue,
	}
	if i.SubCategory.Valid {
		resp.SubCategory = &i.SubCategory.String
	}
	if i.ShippedQty.Valid {
		s := numericString(i.ShippedQty)
		resp.ShippedQty = &s
	}
	if i.ReceivedQty.Valid {
		s := numericString(i.ReceivedQty)
		resp.ReceivedQty = &s
	}
	if i.MissingQty.Valid {
		s := numericString(i.MissingQty)
		resp.MissingQty = &s
	}
	return resp
}

func toReconciliationResponse(recs []service.LineReconciliation) []reconciliationResponse {
	resp := make([]reconciliationResponse, len(recs))
	for i, rec := range recs {
		resp[i] = reconciliationResponse{
			Line:     toOrderItemResponse(rec.Line),
			Variance: rec.Variance.String(),
			Missing:  rec.Missing.String(),
		}
	}
	return resp
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	return val.(string)
}

// --- Handlers ---

// Create opens a new draft order for the branch.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.OrderLineRequest, len(req.Items))
	for i, line := range req.Items {
		lines[i] = service.OrderLineRequest{ItemID: line.ItemID, Qty: line.Qty}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		BranchID:      branchID,
		SectionID:     req.SectionID,
		OrderType:     req.OrderType,
		ScheduleDate:  req.ScheduleDate,
		DeliveryDate:  req.DeliveryDate,
		CreatedBy:     claims.UserID,
		CreatedByName: claims.FullName,
		Items:         lines,
	})
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// List returns the branch's orders, newest first, with optional filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	params := database.ListOrdersParams{
		BranchID: branchID,
		Limit:    50,
		Offset:   0,
	}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		if !service.IsValidOrderStatus(v) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: v, Valid: true}
	}
	if v := q.Get("order_type"); v != "" {
		params.OrderType = pgtype.Text{String: v, Valid: true}
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		params.Limit = int32(n)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one branch order with its lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// UpdateDraft replaces the header and lines of an editable order.
func (h *OrderHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.OrderLineRequest, len(req.Items))
	for i, line := range req.Items {
		lines[i] = service.OrderLineRequest{ItemID: line.ItemID, Qty: line.Qty}
	}

	result, err := h.svc.UpdateDraft(r.Context(), service.UpdateDraftRequest{
		OrderID:      orderID,
		BranchID:     branchID,
		Version:      req.Version,
		SectionID:    req.SectionID,
		OrderType:    req.OrderType,
		ScheduleDate: req.ScheduleDate,
		DeliveryDate: req.DeliveryDate,
		Items:        lines,
	})
	if err != nil {
		writeOrderError(w, "update order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(result.Order, result.Items))
}

// Submit moves a draft into review.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.branchTransition(w, r, "submit order", ws.EventOrderSubmitted, h.svc.Submit)
}

// Forward sends a reviewed order to the central kitchen.
func (h *OrderHandler) Forward(w http.ResponseWriter, r *http.Request) {
	h.branchTransition(w, r, "forward order", ws.EventOrderForwarded, h.svc.Forward)
}

// Receive finalizes a shipped order at the branch.
func (h *OrderHandler) Receive(w http.ResponseWriter, r *http.Request) {
	h.branchTransition(w, r, "receive order", ws.EventOrderReceived, h.svc.Receive)
}

// Accept moves a forwarded order into processing at the kitchen.
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.kitchenTransition(w, r, "accept order", ws.EventOrderAccepted, h.svc.Accept)
}

// Reject declines a forwarded order at the kitchen.
func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.kitchenTransition(w, r, "reject order", ws.EventOrderRejected, h.svc.Reject)
}

// Ship marks a fully annotated order as shipped.
func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.kitchenTransition(w, r, "ship order", ws.EventOrderShipped, h.svc.Ship)
}

// RecordShipment stores the kitchen's shipped quantities for an order's lines.
func (h *OrderHandler) RecordShipment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req shipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.ShipmentLine, len(req.Lines))
	for i, line := range req.Lines {
		lineID, err := uuid.Parse(line.LineID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line_id"})
			return
		}
		lines[i] = service.ShipmentLine{LineID: lineID, ShippedQty: line.ShippedQty}
	}

	recs, err := h.svc.RecordShipment(r.Context(), orderID, req.Version, lines)
	if err != nil {
		writeOrderError(w, "record shipment", err)
		return
	}

	writeJSON(w, http.StatusOK, toReconciliationResponse(recs))
}

// RecordReceiving stores the branch's counted quantities for an order's lines.
func (h *OrderHandler) RecordReceiving(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req receivingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.ReceivingLine, len(req.Lines))
	for i, line := range req.Lines {
		lineID, err := uuid.Parse(line.LineID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line_id"})
			return
		}
		lines[i] = service.ReceivingLine{
			LineID:       lineID,
			ReceivedQty:  line.ReceivedQty,
			QualityIssue: line.QualityIssue,
		}
	}

	recs, err := h.svc.RecordReceiving(r.Context(), orderID, branchID, req.Version, lines)
	if err != nil {
		writeOrderError(w, "record receiving", err)
		return
	}

	writeJSON(w, http.StatusOK, toReconciliationResponse(recs))
}

// ListInbound returns orders across all branches for the kitchen queue.
func (h *OrderHandler) ListInbound(w http.ResponseWriter, r *http.Request) {
	params := database.ListInboundOrdersParams{Limit: 50, Offset: 0}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		if !service.IsValidOrderStatus(v) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: v, Valid: true}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		params.Limit = int32(n)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	orders, err := h.store.ListInboundOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list inbound orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetInbound returns one order with its lines, without branch scoping.
func (h *OrderHandler) GetInbound(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get inbound order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// --- Helpers ---

// branchTransition runs a branch-scoped status transition and broadcasts the
// resulting event to the order's branch room.
func (h *OrderHandler) branchTransition(
	w http.ResponseWriter, r *http.Request, op, eventType string,
	fn func(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*service.OrderResult, error),
) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := fn(r.Context(), orderID, branchID, req.Version)
	if err != nil {
		writeOrderError(w, op, err)
		return
	}

	h.notify(result.Order, eventType)
	writeJSON(w, http.StatusOK, toOrderResponse(result.Order, result.Items))
}

// kitchenTransition runs an unscoped status transition for the kitchen side.
func (h *OrderHandler) kitchenTransition(
	w http.ResponseWriter, r *http.Request, op, eventType string,
	fn func(ctx context.Context, orderID uuid.UUID, version int32) (*service.OrderResult, error),
) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := fn(r.Context(), orderID, req.Version)
	if err != nil {
		writeOrderError(w, op, err)
		return
	}

	h.notify(result.Order, eventType)
	writeJSON(w, http.StatusOK, toOrderResponse(result.Order, result.Items))
}

func (h *OrderHandler) notify(order database.Order, eventType string) {
	if h.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"status":   order.Status,
		"version":  order.Version,
	})
	if err != nil {
		log.Printf("ERROR: marshal ws payload: %v", err)
		return
	}
	h.hub.BroadcastToBranch(order.BranchID, ws.Event{Type: eventType, Payload: payload})
}

// writeOrderError maps service errors to HTTP responses.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrVersionConflict),
		errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrShipmentIncomplete):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidItemID),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrItemNotAssigned),
		errors.Is(err, service.ErrScheduleDateRequired),
		errors.Is(err, service.ErrInvalidScheduleDate),
		errors.Is(err, service.ErrInvalidDeliveryDate),
		errors.Is(err, service.ErrInvalidSectionID),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrNoPositiveLine),
		errors.Is(err, service.ErrInvalidShippedQty),
		errors.Is(err, service.ErrInvalidReceivedQty):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
