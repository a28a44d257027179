package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/shopspring/decimal"
)

const maxOrderNoRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidQuantity      = errors.New("order_qty must be > 0")
	ErrInvalidItemID        = errors.New("invalid item_id")
	ErrItemNotFound         = errors.New("item not found")
	ErrItemNotAssigned      = errors.New("item is not assigned to this branch")
	ErrScheduleDateRequired = errors.New("schedule_date is required for SCHEDULE orders")
	ErrInvalidScheduleDate  = errors.New("invalid schedule_date")
	ErrInvalidDeliveryDate  = errors.New("invalid delivery_date")
	ErrInvalidSectionID     = errors.New("invalid section_id")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotEditable     = errors.New("order can no longer be edited")
	ErrNoPositiveLine       = errors.New("order needs at least one line with order_qty > 0")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrVersionConflict      = errors.New("order was modified by someone else, please reload")
	ErrShipmentIncomplete   = errors.New("every line needs a shipped_qty before shipping")
	ErrLineNotFound         = errors.New("order line not found")
	ErrInvalidShippedQty    = errors.New("invalid shipped_qty")
	ErrInvalidReceivedQty   = errors.New("invalid received_qty")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the lifecycle needs.
// Satisfied by *database.Queries, built over a pool or an open tx.
type OrderStore interface {
	GetNextOrderSeq(ctx context.Context, prefix string) (int32, error)
	GetItemForOrder(ctx context.Context, id uuid.UUID) (database.GetItemForOrderRow, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderDraft(ctx context.Context, arg database.UpdateOrderDraftParams) (database.Order, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderItemShipment(ctx context.Context, arg database.UpdateOrderItemShipmentParams) (database.OrderItem, error)
	UpdateOrderItemReceiving(ctx context.Context, arg database.UpdateOrderItemReceivingParams) (database.OrderItem, error)
	CountItemsWithoutShippedQty(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the input for creating a draft order.
type CreateOrderRequest struct {
	BranchID      uuid.UUID
	SectionID     string
	OrderType     string
	ScheduleDate  string // RFC3339
	DeliveryDate  string // RFC3339
	CreatedBy     uuid.UUID
	CreatedByName string
	Items         []OrderLineRequest
}

// OrderLineRequest references a catalog item; the service snapshots its
// descriptive fields into the line at creation time.
type OrderLineRequest struct {
	ItemID string
	Qty    string
}

// ShipmentLine carries the kitchen's shipped quantity for one line.
type ShipmentLine struct {
	LineID     uuid.UUID
	ShippedQty string
}

// ReceivingLine carries the branch's counted quantity for one line.
type ReceivingLine struct {
	LineID       uuid.UUID
	ReceivedQty  string
	QualityIssue bool
}

// LineReconciliation reports the variance computed for one annotated line.
type LineReconciliation struct {
	Line     database.OrderItem
	Variance decimal.Decimal
	Missing  decimal.Decimal
}

// OrderResult is an order with its lines.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService owns the order lifecycle: draft creation, status transitions,
// shipment and receiving annotation. Every mutation runs in a transaction and
// is guarded by the order's version counter.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the request, snapshots catalog items into lines, and
// creates a DRAFT order atomically. The order number is ORD-YYYYMMDD-NNN with
// a per-day sequence; retries on the order_no unique constraint cover the
// race where concurrent transactions read the same MAX.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNoRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNoConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNoConflict checks for a unique constraint violation on order_no
// (pgconn error code 23505).
func isOrderNoConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_no_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	prefix := fmt.Sprintf("ORD-%s-", time.Now().Format("20060102"))
	seq, err := store.GetNextOrderSeq(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("next order seq: %w", err)
	}
	orderNo := fmt.Sprintf("%s%03d", prefix, seq)

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
		t, err := time.Parse(time.RFC3339, req.ScheduleDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScheduleDate, err)
		}
		scheduleDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	deliveryDate := pgtype.Timestamptz{}
	if req.DeliveryDate != "" {
		t, err := time.Parse(time.RFC3339, req.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDeliveryDate, err)
		}
		deliveryDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	// Resolve and snapshot catalog items before inserting anything.
	type lineSnapshot struct {
		item database.GetItemForOrderRow
		qty  decimal.Decimal
	}
	lines := make([]lineSnapshot, len(req.Items))
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
		lines[i] = lineSnapshot{item: item, qty: qty}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNo:       orderNo,
		BranchID:      req.BranchID,
		SectionID:     sectionID,
		OrderType:     req.OrderType,
		ScheduleDate:  scheduleDate,
		DeliveryDate:  deliveryDate,
		CreatedBy:     req.CreatedBy,
		CreatedByName: req.CreatedByName,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(lines))
	for i, ls := range lines {
		item, err := store.CreateOrderItem(ctx, orderItemParams(order.ID, int32(i), ls.item, ls.qty))
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: items}, nil
}

func orderItemParams(orderID uuid.UUID, position int32, item database.GetItemForOrderRow, qty decimal.Decimal) database.CreateOrderItemParams {
	category := ""
	if item.CategoryName.Valid {
		category = item.CategoryName.String
	}
	return database.CreateOrderItemParams{
		OrderID:     orderID,
		Position:    position,
		ItemCode:    item.Code,
		ItemName:    item.Name,
		Unit:        item.Unit,
		Category:    category,
		SubCategory: item.SubCategoryName,
		OrderQty:    decimalToNumeric(qty),
	}
}
