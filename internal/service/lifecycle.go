package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Submit moves a draft to UNDER_REVIEW. An incomplete order is rejected:
// no line with a positive quantity, or a SCHEDULE order without its
// schedule_date.
func (s *OrderService) Submit(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusUnderReview, func(ctx context.Context, store OrderStore, order database.Order) error {
		if order.BranchID != branchID {
			return ErrOrderNotFound
		}
		return validateSubmittable(ctx, store, order)
	})
}

// Forward moves a reviewed order to the central kitchen's queue.
func (s *OrderService) Forward(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusSentToKitchen, func(ctx context.Context, store OrderStore, order database.Order) error {
		if order.BranchID != branchID {
			return ErrOrderNotFound
		}
		return nil
	})
}

// Accept is the central kitchen taking an order into processing.
func (s *OrderService) Accept(ctx context.Context, orderID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusUnderProcess, nil)
}

// Reject is the central kitchen declining an order. Terminal.
func (s *OrderService) Reject(ctx context.Context, orderID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusRejected, nil)
}

// Ship moves a processed order to SHIPPED. Shipping is an explicit action:
// it requires every line to carry a shipped quantity (zero allowed) and
// never fires implicitly when the last quantity is entered.
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusShipped, func(ctx context.Context, store OrderStore, order database.Order) error {
		missing, err := store.CountItemsWithoutShippedQty(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("count unshipped lines: %w", err)
		}
		if missing > 0 {
			return ErrShipmentIncomplete
		}
		return nil
	})
}

// Receive finalizes the order at the branch. Terminal.
func (s *OrderService) Receive(ctx context.Context, orderID, branchID uuid.UUID, version int32) (*OrderResult, error) {
	return s.transitionTx(ctx, orderID, version, enum.OrderStatusReceived, func(ctx context.Context, store OrderStore, order database.Order) error {
		if order.BranchID != branchID {
			return ErrOrderNotFound
		}
		return nil
	})
}

// UpdateDraftRequest rewrites an editable order's header and lines.
type UpdateDraftRequest struct {
	OrderID      uuid.UUID
	BranchID     uuid.UUID
	Version      int32
	SectionID    string
	OrderType    string
	ScheduleDate string
	DeliveryDate string
	Items        []OrderLineRequest
}

// UpdateDraft replaces the lines of a DRAFT or UNDER_REVIEW order. For
// UNDER_REVIEW this is the self-transition: content changes, status does
// not, the version still bumps so concurrent editors conflict.
func (s *OrderService) UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*OrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.BranchID != req.BranchID {
		return nil, ErrOrderNotFound
	}
	if order.Status != enum.OrderStatusDraft && order.Status != enum.OrderStatusUnderReview {
		return nil, ErrOrderNotEditable
	}

	sectionID := pgtype.UUID{}
	var sectionUUID uuid.UUID
	if req.SectionID != "" {
		sid, err := uuid.Parse(req.SectionID)
		if err != nil {
			return nil, ErrInvalidSectionID
		}
		sectionID = pgtype.UUID{Bytes: sid, Valid: true}
		sectionUUID = sid
	}

	scheduleDate := pgtype.Timestamptz{}
	if req.ScheduleDate != "" {
		t, err := parseRFC3339(req.ScheduleDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScheduleDate, err)
		}
		scheduleDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	deliveryDate := pgtype.Timestamptz{}
	if req.DeliveryDate != "" {
		t, err := parseRFC3339(req.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDeliveryDate, err)
		}
		deliveryDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	updated, err := store.UpdateOrderDraft(ctx, database.UpdateOrderDraftParams{
		ID:           order.ID,
		SectionID:    sectionID,
		OrderType:    req.OrderType,
		ScheduleDate: scheduleDate,
		DeliveryDate: deliveryDate,
		Version:      req.Version,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := store.DeleteOrderItems(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	items := make([]database.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemID)
		}
		item, err := store.GetItemForOrder(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get item: %w", i, err)
		}
		if !ItemBelongsTo(item.Item, req.BranchID, sectionUUID) {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrItemNotAssigned)
		}
		qty, err := decimal.NewFromString(line.Qty)
		if err != nil || !qty.IsPositive() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		created, err := store.CreateOrderItem(ctx, orderItemParams(order.ID, int32(i), item, qty))
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: updated, Items: items}, nil
}

// RecordShipment sets shipped quantities on an order's lines while it is
// UNDER_PROCESS. Zero is a valid shipped quantity; it means the kitchen
// processed the line and sent nothing. Returns per-line reconciliation
// against the ordered quantity (positive variance = over-shipped).
func (s *OrderService) RecordShipment(ctx context.Context, orderID uuid.UUID, version int32, lines []ShipmentLine) ([]LineReconciliation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusUnderProcess {
		return nil, fmt.Errorf("%w: shipment can only be recorded while UNDER_PROCESS", ErrIllegalTransition)
	}

	results := make([]LineReconciliation, 0, len(lines))
	for i, line := range lines {
		shipped, err := decimal.NewFromString(line.ShippedQty)
		if err != nil || shipped.IsNegative() {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidShippedQty)
		}
		updated, err := store.UpdateOrderItemShipment(ctx, database.UpdateOrderItemShipmentParams{
			ID:         line.LineID,
			OrderID:    order.ID,
			ShippedQty: decimalToNumeric(shipped),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrLineNotFound)
			}
			return nil, fmt.Errorf("lines[%d]: update shipment: %w", i, err)
		}
		rec := Reconcile(numericToDecimal(updated.OrderQty), shipped)
		results = append(results, LineReconciliation{
			Line:     updated,
			Variance: rec.Variance,
			Missing:  rec.Missing,
		})
	}

	// Bump the version without changing status so a concurrent editor of the
	// same order conflicts instead of silently interleaving.
	if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:      order.ID,
		Status:  order.Status,
		Version: version,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("bump order version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return results, nil
}

// RecordReceiving sets received quantities on a SHIPPED order's lines.
// Missing quantity reconciles against the shipped quantity, not the original
// order: transit loss stays separate from kitchen shortfall. The quality
// flag is independent of quantity.
func (s *OrderService) RecordReceiving(ctx context.Context, orderID, branchID uuid.UUID, version int32, lines []ReceivingLine) ([]LineReconciliation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.BranchID != branchID {
		return nil, ErrOrderNotFound
	}
	if order.Status != enum.OrderStatusShipped {
		return nil, fmt.Errorf("%w: receiving can only be recorded while SHIPPED", ErrIllegalTransition)
	}

	current, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	shippedByLine := make(map[uuid.UUID]decimal.Decimal, len(current))
	for _, item := range current {
		shippedByLine[item.ID] = numericToDecimal(item.ShippedQty)
	}

	results := make([]LineReconciliation, 0, len(lines))
	for i, line := range lines {
		received, err := decimal.NewFromString(line.ReceivedQty)
		if err != nil || received.IsNegative() {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidReceivedQty)
		}
		shipped, ok := shippedByLine[line.LineID]
		if !ok {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrLineNotFound)
		}
		rec := Reconcile(shipped, received)
		updated, err := store.UpdateOrderItemReceiving(ctx, database.UpdateOrderItemReceivingParams{
			ID:           line.LineID,
			OrderID:      order.ID,
			ReceivedQty:  decimalToNumeric(received),
			MissingQty:   decimalToNumeric(rec.Missing),
			QualityIssue: line.QualityIssue,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrLineNotFound)
			}
			return nil, fmt.Errorf("lines[%d]: update receiving: %w", i, err)
		}
		results = append(results, LineReconciliation{
			Line:     updated,
			Variance: rec.Variance,
			Missing:  rec.Missing,
		})
	}

	if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:      order.ID,
		Status:  order.Status,
		Version: version,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("bump order version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return results, nil
}

// transitionTx runs one status transition: load, validate the edge, apply the
// extra check, then write guarded by the version counter.
func (s *OrderService) transitionTx(ctx context.Context, orderID uuid.UUID, version int32, next string, check func(context.Context, OrderStore, database.Order) error) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := ValidateTransition(order.Status, next); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(ctx, store, order); err != nil {
			return nil, err
		}
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:      order.ID,
		Status:  next,
		Version: version,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: updated, Items: items}, nil
}

// validateSubmittable enforces the Draft→UnderReview completeness rules.
func validateSubmittable(ctx context.Context, store OrderStore, order database.Order) error {
	if order.OrderType == enum.OrderTypeSchedule && !order.ScheduleDate.Valid {
		return ErrScheduleDateRequired
	}
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		if numericToDecimal(item.OrderQty).IsPositive() {
			return nil
		}
	}
	return ErrNoPositiveLine
}
