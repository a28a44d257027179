package database

import (
	"context"

	"github.com/google/uuid"
)

const sectionColumns = `id, name, is_active, created_at`

func scanSection(row interface{ Scan(...interface{}) error }) (Section, error) {
	var s Section
	err := row.Scan(&s.ID, &s.Name, &s.IsActive, &s.CreatedAt)
	return s, err
}

func (q *Queries) ListSections(ctx context.Context) ([]Section, error) {
	const query = `
SELECT ` + sectionColumns + `
FROM sections
ORDER BY name`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sections []Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (q *Queries) ListActiveSections(ctx context.Context) ([]Section, error) {
	const query = `
SELECT ` + sectionColumns + `
FROM sections
WHERE is_active = true
ORDER BY name`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sections []Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (q *Queries) GetSection(ctx context.Context, id uuid.UUID) (Section, error) {
	const query = `
SELECT ` + sectionColumns + `
FROM sections
WHERE id = $1`
	return scanSection(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) CreateSection(ctx context.Context, name string) (Section, error) {
	const query = `
INSERT INTO sections (name)
VALUES ($1)
RETURNING ` + sectionColumns
	return scanSection(q.db.QueryRow(ctx, query, name))
}

type UpdateSectionParams struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

func (q *Queries) UpdateSection(ctx context.Context, arg UpdateSectionParams) (Section, error) {
	const query = `
UPDATE sections
SET name = $2, is_active = $3
WHERE id = $1
RETURNING ` + sectionColumns
	return scanSection(q.db.QueryRow(ctx, query, arg.ID, arg.Name, arg.IsActive))
}

func (q *Queries) SoftDeleteSection(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `
UPDATE sections
SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id`
	var out uuid.UUID
	err := q.db.QueryRow(ctx, query, id).Scan(&out)
	return out, err
}
