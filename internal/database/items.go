package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const itemColumns = `id, code, name, unit, category_id, sub_category_id, section_id,
	assign_branch, assign_branches, is_active, created_at`

func scanItem(row interface{ Scan(...interface{}) error }) (Item, error) {
	var i Item
	err := row.Scan(
		&i.ID, &i.Code, &i.Name, &i.Unit, &i.CategoryID, &i.SubCategoryID,
		&i.SectionID, &i.AssignBranch, &i.AssignBranches, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	const query = `
SELECT ` + itemColumns + `
FROM items
WHERE is_active = true
ORDER BY name`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	const query = `
SELECT ` + itemColumns + `
FROM items
WHERE id = $1 AND is_active = true`
	return scanItem(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetItemByCode(ctx context.Context, code string) (Item, error) {
	const query = `
SELECT ` + itemColumns + `
FROM items
WHERE code = $1 AND is_active = true`
	return scanItem(q.db.QueryRow(ctx, query, code))
}

// GetItemForOrderRow is the catalog item joined with its category names,
// ready to be snapshotted into an order line.
type GetItemForOrderRow struct {
	Item
	CategoryName    pgtype.Text
	SubCategoryName pgtype.Text
}

func (q *Queries) GetItemForOrder(ctx context.Context, id uuid.UUID) (GetItemForOrderRow, error) {
	const query = `
SELECT i.id, i.code, i.name, i.unit, i.category_id, i.sub_category_id, i.section_id,
	i.assign_branch, i.assign_branches, i.is_active, i.created_at,
	c.name_en AS category_name, sc.name_en AS sub_category_name
FROM items i
LEFT JOIN item_categories c ON c.id = i.category_id
LEFT JOIN sub_categories sc ON sc.id = i.sub_category_id
WHERE i.id = $1 AND i.is_active = true`
	var r GetItemForOrderRow
	err := q.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.Code, &r.Name, &r.Unit, &r.CategoryID, &r.SubCategoryID,
		&r.SectionID, &r.AssignBranch, &r.AssignBranches, &r.IsActive, &r.CreatedAt,
		&r.CategoryName, &r.SubCategoryName,
	)
	return r, err
}

type CreateItemParams struct {
	Code          string
	Name          string
	Unit          string
	CategoryID    pgtype.UUID
	SubCategoryID pgtype.UUID
	SectionID     pgtype.UUID
	AssignBranch  []byte
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	const query = `
INSERT INTO items (code, name, unit, category_id, sub_category_id, section_id, assign_branch)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + itemColumns
	return scanItem(q.db.QueryRow(ctx, query,
		arg.Code, arg.Name, arg.Unit, arg.CategoryID, arg.SubCategoryID,
		arg.SectionID, arg.AssignBranch,
	))
}

type UpdateItemParams struct {
	ID            uuid.UUID
	Name          string
	Unit          string
	CategoryID    pgtype.UUID
	SubCategoryID pgtype.UUID
	SectionID     pgtype.UUID
	AssignBranch  []byte
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	const query = `
UPDATE items
SET name = $2, unit = $3, category_id = $4, sub_category_id = $5,
	section_id = $6, assign_branch = $7
WHERE id = $1 AND is_active = true
RETURNING ` + itemColumns
	return scanItem(q.db.QueryRow(ctx, query,
		arg.ID, arg.Name, arg.Unit, arg.CategoryID, arg.SubCategoryID,
		arg.SectionID, arg.AssignBranch,
	))
}

func (q *Queries) SoftDeleteItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
UPDATE items
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}
