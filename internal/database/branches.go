package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const branchColumns = `id, name, address, phone, is_active, created_at`

func scanBranch(row interface{ Scan(...interface{}) error }) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt)
	return b, err
}

func (q *Queries) ListBranches(ctx context.Context) ([]Branch, error) {
	const query = `
SELECT ` + branchColumns + `
FROM branches
WHERE is_active = true
ORDER BY name`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var branches []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (q *Queries) GetBranch(ctx context.Context, id uuid.UUID) (Branch, error) {
	const query = `
SELECT ` + branchColumns + `
FROM branches
WHERE id = $1 AND is_active = true`
	return scanBranch(q.db.QueryRow(ctx, query, id))
}

type CreateBranchParams struct {
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

func (q *Queries) CreateBranch(ctx context.Context, arg CreateBranchParams) (Branch, error) {
	const query = `
INSERT INTO branches (name, address, phone)
VALUES ($1, $2, $3)
RETURNING ` + branchColumns
	return scanBranch(q.db.QueryRow(ctx, query, arg.Name, arg.Address, arg.Phone))
}

type UpdateBranchParams struct {
	ID      uuid.UUID
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

func (q *Queries) UpdateBranch(ctx context.Context, arg UpdateBranchParams) (Branch, error) {
	const query = `
UPDATE branches
SET name = $2, address = $3, phone = $4
WHERE id = $1 AND is_active = true
RETURNING ` + branchColumns
	return scanBranch(q.db.QueryRow(ctx, query, arg.ID, arg.Name, arg.Address, arg.Phone))
}

func (q *Queries) SoftDeleteBranch(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
UPDATE branches
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}
