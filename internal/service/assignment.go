package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/karahi-ops/api/internal/database"
)

// Historical item documents carry branch assignment in four shapes, inherited
// from incremental schema changes in the legacy system:
//
//	"64ab..."                      bare ID string
//	{"_id": "64ab..."}             object reference
//	["64ab...", {"_id": "..."}]    array of either
//
// plus the retired plural column with the same variants. All variant handling
// lives here; callers only ever see the canonical ID set.

// AssignedBranchIDs normalizes an item's assignment JSON into one set of
// branch IDs. Unparseable fragments are skipped, not fatal: dirty legacy rows
// must not make the whole item invisible.
func AssignedBranchIDs(item database.Item) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool)
	collectBranchIDs(item.AssignBranch, ids)
	collectBranchIDs(item.AssignBranches, ids)
	return ids
}

// ItemBelongsTo is the shared selectable-item predicate for the order and
// wastage flows: assignment to the branch, and to the section when the item
// is section-scoped.
func ItemBelongsTo(item database.Item, branchID, sectionID uuid.UUID) bool {
	if !AssignedBranchIDs(item)[branchID] {
		return false
	}
	if item.SectionID.Valid && sectionID != uuid.Nil {
		return uuid.UUID(item.SectionID.Bytes) == sectionID
	}
	return true
}

func collectBranchIDs(raw []byte, ids map[uuid.UUID]bool) {
	if len(raw) == 0 {
		return
	}

	// Bare ID string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		addBranchID(s, ids)
		return
	}

	// {"_id": "..."} object.
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		addBranchID(obj.ID, ids)
		return
	}

	// Array of either representation.
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, el := range arr {
			collectBranchIDs(el, ids)
		}
	}
}

func addBranchID(s string, ids map[uuid.UUID]bool) {
	if id, err := uuid.Parse(s); err == nil {
		ids[id] = true
	}
}
