package service

import (
	"testing"

	"github.com/karahi-ops/api/internal/database"
	"github.com/shopspring/decimal"
)

func pickLine(code, name, unit, category, qty string) database.OrderItem {
	return database.OrderItem{
		ItemCode: code,
		ItemName: name,
		Unit:     unit,
		Category: category,
		OrderQty: decimalToNumeric(decimal.RequireFromString(qty)),
	}
}

func TestBuildPickListAggregates(t *testing.T) {
	orders := []PickListOrder{
		{
			OrderNo:    "ORD-20260831-001",
			BranchName: "Gulberg",
			Items: []database.OrderItem{
				pickLine("RICE01", "Basmati Rice", "kg", "Grains", "5"),
				pickLine("OIL02", "Cooking Oil", "ltr", "Pantry", "2"),
			},
		},
		{
			OrderNo:    "ORD-20260831-002",
			BranchName: "DHA",
			Items: []database.OrderItem{
				pickLine("RICE01", "Basmati Rice", "kg", "Grains", "3"),
			},
		},
	}

	entries := BuildPickList(orders)

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Sorted by category: Grains before Pantry.
	rice := entries[0]
	if rice.ItemCode != "RICE01" || rice.Category != "Grains" {
		t.Fatalf("first entry = %s/%s, want RICE01/Grains", rice.ItemCode, rice.Category)
	}
	if !rice.TotalQty.Equal(decimal.NewFromInt(8)) {
		t.Errorf("RICE01 total = %s, want 8", rice.TotalQty)
	}
	if len(rice.Contributions) != 2 {
		t.Fatalf("RICE01 contributions = %d, want 2", len(rice.Contributions))
	}
	if rice.Contributions[0].Branch != "Gulberg" || rice.Contributions[1].Branch != "DHA" {
		t.Errorf("contribution branches = %s, %s", rice.Contributions[0].Branch, rice.Contributions[1].Branch)
	}

	oil := entries[1]
	if oil.ItemCode != "OIL02" {
		t.Fatalf("second entry = %s, want OIL02", oil.ItemCode)
	}
	if !oil.TotalQty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("OIL02 total = %s, want 2", oil.TotalQty)
	}
}

// The same item code under different categories must not merge.
func TestBuildPickListKeyIncludesCategory(t *testing.T) {
	orders := []PickListOrder{{
		OrderNo:    "ORD-20260831-001",
		BranchName: "Gulberg",
		Items: []database.OrderItem{
			pickLine("MIX01", "Spice Mix", "pkt", "Spices", "1"),
			pickLine("MIX01", "Spice Mix", "pkt", "Frozen", "4"),
		},
	}}

	entries := BuildPickList(orders)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

// Totals are permutation-invariant: feeding the orders in reverse yields the
// same entries in the same sorted positions.
func TestBuildPickListPermutationInvariant(t *testing.T) {
	a := PickListOrder{OrderNo: "A", BranchName: "One", Items: []database.OrderItem{
		pickLine("RICE01", "Basmati Rice", "kg", "Grains", "5"),
		pickLine("SALT01", "Salt", "kg", "Pantry", "1"),
	}}
	b := PickListOrder{OrderNo: "B", BranchName: "Two", Items: []database.OrderItem{
		pickLine("RICE01", "Basmati Rice", "kg", "Grains", "2.5"),
	}}

	forward := BuildPickList([]PickListOrder{a, b})
	backward := BuildPickList([]PickListOrder{b, a})

	if len(forward) != len(backward) {
		t.Fatalf("entry counts differ: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].ItemCode != backward[i].ItemCode {
			t.Errorf("entry %d: %s vs %s", i, forward[i].ItemCode, backward[i].ItemCode)
		}
		if !forward[i].TotalQty.Equal(backward[i].TotalQty) {
			t.Errorf("entry %d total: %s vs %s", i, forward[i].TotalQty, backward[i].TotalQty)
		}
	}
}

func TestBuildPickListSortsByCategoryThenName(t *testing.T) {
	orders := []PickListOrder{{
		OrderNo:    "ORD-20260831-001",
		BranchName: "Gulberg",
		Items: []database.OrderItem{
			pickLine("Z01", "Zeera", "kg", "Spices", "1"),
			pickLine("C01", "Chili Powder", "kg", "Spices", "1"),
			pickLine("R01", "Rice", "kg", "Grains", "1"),
		},
	}}

	entries := BuildPickList(orders)
	want := []string{"R01", "C01", "Z01"}
	for i, code := range want {
		if entries[i].ItemCode != code {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].ItemCode, code)
		}
	}
}

func TestBuildPickListEmpty(t *testing.T) {
	if entries := BuildPickList(nil); len(entries) != 0 {
		t.Errorf("got %d entries for empty input, want 0", len(entries))
	}
}
