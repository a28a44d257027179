package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_no, branch_id, section_id, order_type, status,
	schedule_date, delivery_date, created_by, created_by_name, version, created_at, updated_at`

const orderItemColumns = `id, order_id, position, item_code, item_name, unit, category,
	sub_category, order_qty, shipped_qty, received_qty, missing_qty, quality_issue`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.BranchID, &o.SectionID, &o.OrderType, &o.Status,
		&o.ScheduleDate, &o.DeliveryDate, &o.CreatedBy, &o.CreatedByName,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row interface{ Scan(...interface{}) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID, &i.OrderID, &i.Position, &i.ItemCode, &i.ItemName, &i.Unit,
		&i.Category, &i.SubCategory, &i.OrderQty, &i.ShippedQty, &i.ReceivedQty,
		&i.MissingQty, &i.QualityIssue,
	)
	return i, err
}

// GetNextOrderSeq returns the next per-day sequence number for the given
// order-number prefix (e.g. "ORD-20260831-"). Runs inside the creation tx;
// the unique constraint on order_no catches the race between concurrent
// transactions reading the same MAX.
func (q *Queries) GetNextOrderSeq(ctx context.Context, prefix string) (int32, error) {
	const query = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_no FROM LENGTH($1::text) + 1) AS INT)), 0) + 1
FROM orders
WHERE order_no LIKE $1::text || '%'`
	var next int32
	err := q.db.QueryRow(ctx, query, prefix).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	OrderNo       string
	BranchID      uuid.UUID
	SectionID     pgtype.UUID
	OrderType     string
	ScheduleDate  pgtype.Timestamptz
	DeliveryDate  pgtype.Timestamptz
	CreatedBy     uuid.UUID
	CreatedByName string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	const query = `
INSERT INTO orders (order_no, branch_id, section_id, order_type, status,
	schedule_date, delivery_date, created_by, created_by_name)
VALUES ($1, $2, $3, $4, 'DRAFT', $5, COALESCE($6, now()), $7, $8)
RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, query,
		arg.OrderNo, arg.BranchID, arg.SectionID, arg.OrderType,
		arg.ScheduleDate, arg.DeliveryDate, arg.CreatedBy, arg.CreatedByName,
	))
}

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	Position    int32
	ItemCode    string
	ItemName    string
	Unit        string
	Category    string
	SubCategory pgtype.Text
	OrderQty    pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	const query = `
INSERT INTO order_items (order_id, position, item_code, item_name, unit, category, sub_category, order_qty)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderItemColumns
	return scanOrderItem(q.db.QueryRow(ctx, query,
		arg.OrderID, arg.Position, arg.ItemCode, arg.ItemName, arg.Unit,
		arg.Category, arg.SubCategory, arg.OrderQty,
	))
}

type GetOrderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	const query = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND branch_id = $2`
	return scanOrder(q.db.QueryRow(ctx, query, arg.ID, arg.BranchID))
}

// GetOrderByID looks up an order without branch scoping. Used by the central
// kitchen, which works across all branches.
func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	const query = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`
	return scanOrder(q.db.QueryRow(ctx, query, id))
}

type ListOrdersParams struct {
	BranchID  uuid.UUID
	Status    pgtype.Text
	OrderType pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	const query = `
SELECT ` + orderColumns + `
FROM orders
WHERE branch_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR order_type = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5)
ORDER BY created_at DESC
LIMIT $6 OFFSET $7`
	rows, err := q.db.Query(ctx, query,
		arg.BranchID, arg.Status, arg.OrderType, arg.StartDate, arg.EndDate,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type ListInboundOrdersParams struct {
	Status pgtype.Text
	Limit  int32
	Offset int32
}

// ListInboundOrders returns orders across all branches, newest first. The
// central kitchen's work queue: usually filtered to SENT_TO_KITCHEN or
// UNDER_PROCESS.
func (q *Queries) ListInboundOrders(ctx context.Context, arg ListInboundOrdersParams) ([]Order, error) {
	const query = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	const query = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY position`
	rows, err := q.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID      uuid.UUID
	Status  string
	Version int32
}

// UpdateOrderStatus moves an order to a new status, guarded by the optimistic
// version check. pgx.ErrNoRows means the caller's version is stale.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	const query = `
UPDATE orders
SET status = $2, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $3
RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, query, arg.ID, arg.Status, arg.Version))
}

type UpdateOrderDraftParams struct {
	ID           uuid.UUID
	SectionID    pgtype.UUID
	OrderType    string
	ScheduleDate pgtype.Timestamptz
	DeliveryDate pgtype.Timestamptz
	Version      int32
}

// UpdateOrderDraft rewrites the mutable header fields while the order is
// still editable (DRAFT or UNDER_REVIEW). Bumps the version without touching
// the status: the UNDER_REVIEW self-transition.
func (q *Queries) UpdateOrderDraft(ctx context.Context, arg UpdateOrderDraftParams) (Order, error) {
	const query = `
UPDATE orders
SET section_id = $2, order_type = $3, schedule_date = $4,
	delivery_date = COALESCE($5, delivery_date),
	version = version + 1, updated_at = now()
WHERE id = $1 AND version = $6
RETURNING ` + orderColumns
	return scanOrder(q.db.QueryRow(ctx, query,
		arg.ID, arg.SectionID, arg.OrderType, arg.ScheduleDate, arg.DeliveryDate, arg.Version,
	))
}

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	const query = `DELETE FROM order_items WHERE order_id = $1`
	_, err := q.db.Exec(ctx, query, orderID)
	return err
}

type UpdateOrderItemShipmentParams struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ShippedQty pgtype.Numeric
}

func (q *Queries) UpdateOrderItemShipment(ctx context.Context, arg UpdateOrderItemShipmentParams) (OrderItem, error) {
	const query = `
UPDATE order_items
SET shipped_qty = $3
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns
	return scanOrderItem(q.db.QueryRow(ctx, query, arg.ID, arg.OrderID, arg.ShippedQty))
}

type UpdateOrderItemReceivingParams struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ReceivedQty  pgtype.Numeric
	MissingQty   pgtype.Numeric
	QualityIssue bool
}

func (q *Queries) UpdateOrderItemReceiving(ctx context.Context, arg UpdateOrderItemReceivingParams) (OrderItem, error) {
	const query = `
UPDATE order_items
SET received_qty = $3, missing_qty = $4, quality_issue = $5
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns
	return scanOrderItem(q.db.QueryRow(ctx, query,
		arg.ID, arg.OrderID, arg.ReceivedQty, arg.MissingQty, arg.QualityIssue,
	))
}

// CountItemsWithoutShippedQty reports how many lines still lack a shipped
// quantity. Zero counts as entered; NULL does not.
func (q *Queries) CountItemsWithoutShippedQty(ctx context.Context, orderID uuid.UUID) (int64, error) {
	const query = `
SELECT COUNT(*) FROM order_items
WHERE order_id = $1 AND shipped_qty IS NULL`
	var n int64
	err := q.db.QueryRow(ctx, query, orderID).Scan(&n)
	return n, err
}

// DeleteOrderHistory bulk-deletes terminal orders created before the cutoff.
// The only hard delete in the order lifecycle; admin-only.
func (q *Queries) DeleteOrderHistory(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	const query = `
DELETE FROM orders
WHERE status IN ('RECEIVED', 'REJECTED')
  AND ($1::timestamptz IS NULL OR created_at < $1)`
	tag, err := q.db.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
