package service

import (
	"sort"

	"github.com/karahi-ops/api/internal/database"
	"github.com/shopspring/decimal"
)

// PickListOrder is one selected order with its lines and the display names
// the pick list reports per contribution.
type PickListOrder struct {
	OrderNo    string
	BranchName string
	Items      []database.OrderItem
}

// PickListContribution records how much one order contributes to an entry.
type PickListContribution struct {
	OrderNo string          `json:"order_no"`
	Branch  string          `json:"branch"`
	Qty     decimal.Decimal `json:"qty"`
}

// PickListEntry is the aggregated demand for one item across the selected
// orders. Derived on demand, never persisted.
type PickListEntry struct {
	ItemCode      string                 `json:"item_code"`
	ItemName      string                 `json:"item_name"`
	Unit          string                 `json:"unit"`
	Category      string                 `json:"category"`
	TotalQty      decimal.Decimal        `json:"total_qty"`
	Contributions []PickListContribution `json:"orders"`
}

// BuildPickList groups item lines across the selected orders by item code and
// category and sums ordered quantities. Totals are permutation-invariant;
// the contribution list follows input iteration order. An empty input yields
// an empty list; callers decide whether that is an error.
func BuildPickList(orders []PickListOrder) []PickListEntry {
	byKey := make(map[string]*PickListEntry)
	var keys []string

	for _, o := range orders {
		for _, line := range o.Items {
			key := line.ItemCode + "-" + line.Category
			entry, ok := byKey[key]
			if !ok {
				entry = &PickListEntry{
					ItemCode: line.ItemCode,
					ItemName: line.ItemName,
					Unit:     line.Unit,
					Category: line.Category,
					TotalQty: decimal.Zero,
				}
				byKey[key] = entry
				keys = append(keys, key)
			}
			qty := numericToDecimal(line.OrderQty)
			entry.TotalQty = entry.TotalQty.Add(qty)
			entry.Contributions = append(entry.Contributions, PickListContribution{
				OrderNo: o.OrderNo,
				Branch:  o.BranchName,
				Qty:     qty,
			})
		}
	}

	entries := make([]PickListEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, *byKey[key])
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].ItemName < entries[j].ItemName
	})
	return entries
}
