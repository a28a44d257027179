package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// All category families share the {name_en, name_ur, total_items} document
// shape. total_items is a maintained counter, not derived at read time.

const itemCategoryColumns = `id, name_en, name_ur, total_items, created_at`

func scanItemCategory(row interface{ Scan(...interface{}) error }) (ItemCategory, error) {
	var c ItemCategory
	err := row.Scan(&c.ID, &c.NameEn, &c.NameUr, &c.TotalItems, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListItemCategories(ctx context.Context) ([]ItemCategory, error) {
	const query = `
SELECT ` + itemCategoryColumns + `
FROM item_categories
ORDER BY name_en`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []ItemCategory
	for rows.Next() {
		c, err := scanItemCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) GetItemCategory(ctx context.Context, id uuid.UUID) (ItemCategory, error) {
	const query = `
SELECT ` + itemCategoryColumns + `
FROM item_categories
WHERE id = $1`
	return scanItemCategory(q.db.QueryRow(ctx, query, id))
}

type CreateItemCategoryParams struct {
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) CreateItemCategory(ctx context.Context, arg CreateItemCategoryParams) (ItemCategory, error) {
	const query = `
INSERT INTO item_categories (name_en, name_ur)
VALUES ($1, $2)
RETURNING ` + itemCategoryColumns
	return scanItemCategory(q.db.QueryRow(ctx, query, arg.NameEn, arg.NameUr))
}

type UpdateItemCategoryParams struct {
	ID     uuid.UUID
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) UpdateItemCategory(ctx context.Context, arg UpdateItemCategoryParams) (ItemCategory, error) {
	const query = `
UPDATE item_categories
SET name_en = $2, name_ur = $3
WHERE id = $1
RETURNING ` + itemCategoryColumns
	return scanItemCategory(q.db.QueryRow(ctx, query, arg.ID, arg.NameEn, arg.NameUr))
}

func (q *Queries) DeleteItemCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
DELETE FROM item_categories
WHERE id = $1
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}

const subCategoryColumns = `id, category_id, name_en, name_ur, created_at`

func scanSubCategory(row interface{ Scan(...interface{}) error }) (SubCategory, error) {
	var c SubCategory
	err := row.Scan(&c.ID, &c.CategoryID, &c.NameEn, &c.NameUr, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListSubCategoriesByCategory(ctx context.Context, categoryID uuid.UUID) ([]SubCategory, error) {
	const query = `
SELECT ` + subCategoryColumns + `
FROM sub_categories
WHERE category_id = $1
ORDER BY name_en`
	rows, err := q.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []SubCategory
	for rows.Next() {
		c, err := scanSubCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

type CreateSubCategoryParams struct {
	CategoryID uuid.UUID
	NameEn     string
	NameUr     pgtype.Text
}

func (q *Queries) CreateSubCategory(ctx context.Context, arg CreateSubCategoryParams) (SubCategory, error) {
	const query = `
INSERT INTO sub_categories (category_id, name_en, name_ur)
VALUES ($1, $2, $3)
RETURNING ` + subCategoryColumns
	return scanSubCategory(q.db.QueryRow(ctx, query, arg.CategoryID, arg.NameEn, arg.NameUr))
}

const branchCategoryColumns = `id, name_en, name_ur, total_items, created_at`

func scanBranchCategory(row interface{ Scan(...interface{}) error }) (BranchCategory, error) {
	var c BranchCategory
	err := row.Scan(&c.ID, &c.NameEn, &c.NameUr, &c.TotalItems, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListBranchCategories(ctx context.Context) ([]BranchCategory, error) {
	const query = `
SELECT ` + branchCategoryColumns + `
FROM branch_categories
ORDER BY name_en`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []BranchCategory
	for rows.Next() {
		c, err := scanBranchCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

type CreateBranchCategoryParams struct {
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) CreateBranchCategory(ctx context.Context, arg CreateBranchCategoryParams) (BranchCategory, error) {
	const query = `
INSERT INTO branch_categories (name_en, name_ur)
VALUES ($1, $2)
RETURNING ` + branchCategoryColumns
	return scanBranchCategory(q.db.QueryRow(ctx, query, arg.NameEn, arg.NameUr))
}

type UpdateBranchCategoryParams struct {
	ID     uuid.UUID
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) UpdateBranchCategory(ctx context.Context, arg UpdateBranchCategoryParams) (BranchCategory, error) {
	const query = `
UPDATE branch_categories
SET name_en = $2, name_ur = $3
WHERE id = $1
RETURNING ` + branchCategoryColumns
	return scanBranchCategory(q.db.QueryRow(ctx, query, arg.ID, arg.NameEn, arg.NameUr))
}

func (q *Queries) DeleteBranchCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
DELETE FROM branch_categories
WHERE id = $1
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}

const purchaseCategoryColumns = `id, name_en, name_ur, total_items, created_at`

func scanPurchaseCategory(row interface{ Scan(...interface{}) error }) (PurchaseCategory, error) {
	var c PurchaseCategory
	err := row.Scan(&c.ID, &c.NameEn, &c.NameUr, &c.TotalItems, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListPurchaseCategories(ctx context.Context) ([]PurchaseCategory, error) {
	const query = `
SELECT ` + purchaseCategoryColumns + `
FROM purchase_categories
ORDER BY name_en`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []PurchaseCategory
	for rows.Next() {
		c, err := scanPurchaseCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

type CreatePurchaseCategoryParams struct {
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) CreatePurchaseCategory(ctx context.Context, arg CreatePurchaseCategoryParams) (PurchaseCategory, error) {
	const query = `
INSERT INTO purchase_categories (name_en, name_ur)
VALUES ($1, $2)
RETURNING ` + purchaseCategoryColumns
	return scanPurchaseCategory(q.db.QueryRow(ctx, query, arg.NameEn, arg.NameUr))
}

type UpdatePurchaseCategoryParams struct {
	ID     uuid.UUID
	NameEn string
	NameUr pgtype.Text
}

func (q *Queries) UpdatePurchaseCategory(ctx context.Context, arg UpdatePurchaseCategoryParams) (PurchaseCategory, error) {
	const query = `
UPDATE purchase_categories
SET name_en = $2, name_ur = $3
WHERE id = $1
RETURNING ` + purchaseCategoryColumns
	return scanPurchaseCategory(q.db.QueryRow(ctx, query, arg.ID, arg.NameEn, arg.NameUr))
}

func (q *Queries) DeletePurchaseCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
DELETE FROM purchase_categories
WHERE id = $1
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}
