package database

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, branch_id, email, hashed_password, full_name, role, is_active, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.BranchID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1 AND is_active = true`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1 AND is_active = true`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

type CreateUserParams struct {
	BranchID       uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	const query = `
INSERT INTO users (branch_id, email, hashed_password, full_name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns
	return scanUser(q.db.QueryRow(ctx, query,
		arg.BranchID, arg.Email, arg.HashedPassword, arg.FullName, arg.Role,
	))
}

func (q *Queries) ListUsersByBranch(ctx context.Context, branchID uuid.UUID) ([]User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE branch_id = $1 AND is_active = true
ORDER BY full_name`
	rows, err := q.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
UPDATE users
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}
