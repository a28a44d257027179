package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const wastageColumns = `id, branch_id, section_id, item_code, item_name, unit, qty,
	wastage_type, media_path, recorded_by, recorded_by_name, created_at`

func scanWastage(row interface{ Scan(...interface{}) error }) (WastageRecord, error) {
	var w WastageRecord
	err := row.Scan(
		&w.ID, &w.BranchID, &w.SectionID, &w.ItemCode, &w.ItemName, &w.Unit,
		&w.Qty, &w.WastageType, &w.MediaPath, &w.RecordedBy, &w.RecordedByName,
		&w.CreatedAt,
	)
	return w, err
}

type CreateWastageRecordParams struct {
	BranchID       uuid.UUID
	SectionID      uuid.UUID
	ItemCode       string
	ItemName       string
	Unit           string
	Qty            pgtype.Numeric
	WastageType    string
	MediaPath      pgtype.Text
	RecordedBy     uuid.UUID
	RecordedByName string
}

// CreateWastageRecord inserts a wastage record. Records are write-once: no
// update or delete queries exist for this table.
func (q *Queries) CreateWastageRecord(ctx context.Context, arg CreateWastageRecordParams) (WastageRecord, error) {
	const query = `
INSERT INTO wastage_records (branch_id, section_id, item_code, item_name, unit,
	qty, wastage_type, media_path, recorded_by, recorded_by_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + wastageColumns
	return scanWastage(q.db.QueryRow(ctx, query,
		arg.BranchID, arg.SectionID, arg.ItemCode, arg.ItemName, arg.Unit,
		arg.Qty, arg.WastageType, arg.MediaPath, arg.RecordedBy, arg.RecordedByName,
	))
}

type ListWastageByBranchParams struct {
	BranchID uuid.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListWastageByBranch(ctx context.Context, arg ListWastageByBranchParams) ([]WastageRecord, error) {
	const query = `
SELECT ` + wastageColumns + `
FROM wastage_records
WHERE branch_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, arg.BranchID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []WastageRecord
	for rows.Next() {
		w, err := scanWastage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, w)
	}
	return records, rows.Err()
}
