package stock

import (
	"testing"

	"github.com/andresuchdata/erpsync/internal/domain"
)

func position(class domain.Class, stock, rot30, rot90 float64) Position {
	return Position{
		SKU:       "P1",
		Warehouse: "01P",
		Stock:     stock,
		Rotation:  rot("P1", "01P", rot30, rot30, rot90),
		Class:     class,
	}
}

func TestSuggest_ClassA(t *testing.T) {
	got, ok := Suggest(position(domain.ClassA, 50, 300, 300))
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if got.SuggestedQty != 250 || got.TargetDays != 30 {
		t.Fatalf("expected 250 units for 30 days, got %+v", got)
	}
	// 50 units at 10 per day is five days of cover
	if got.Status != domain.StatusLowStock {
		t.Fatalf("expected %s, got %s", domain.StatusLowStock, got.Status)
	}
}

func TestSuggest_NothingToBuy(t *testing.T) {
	if got, ok := Suggest(position(domain.ClassC, 100, 30, 30)); ok {
		t.Fatalf("expected no suggestion, got %+v", got)
	}
}

func TestSuggest_RoundsUp(t *testing.T) {
	got, ok := Suggest(position(domain.ClassB, 0, 31, 31))
	if !ok || got.SuggestedQty != 21 || got.TargetDays != 20 {
		t.Fatalf("expected 21 units for 20 days, got %+v ok=%v", got, ok)
	}
}

func TestSuggest_ExactCoverageIsNotRoundedUp(t *testing.T) {
	got, ok := Suggest(position(domain.ClassA, 0, 7, 7))
	if !ok || got.SuggestedQty != 7 {
		t.Fatalf("expected 7 units, got %+v ok=%v", got, ok)
	}
}

// 31/30*30 in floating point is 31.000000000000004 and would round up to 32.
func TestSuggest_MultipliesBeforeDividing(t *testing.T) {
	got, ok := Suggest(position(domain.ClassA, 0, 31, 31))
	if !ok || got.SuggestedQty != 31 {
		t.Fatalf("expected exactly 31 units, got %+v ok=%v", got, ok)
	}
}

func TestSuggest_ClassD(t *testing.T) {
	if _, ok := Suggest(position(domain.ClassD, 0, 100, 100)); ok {
		t.Fatal("class D has no coverage target")
	}
	// Negative stock is replenished back to zero.
	got, ok := Suggest(position(domain.ClassD, -5, 0, 0))
	if !ok || got.SuggestedQty != 5 || got.TargetDays != 0 {
		t.Fatalf("expected 5 units, got %+v ok=%v", got, ok)
	}
}

func TestTargetDays(t *testing.T) {
	cases := map[domain.Class]int{
		domain.ClassA: 30,
		domain.ClassB: 20,
		domain.ClassC: 10,
		domain.ClassD: 0,
		"":            0,
	}
	for class, want := range cases {
		if got := TargetDays(class); got != want {
			t.Fatalf("TargetDays(%q) = %d, expected %d", class, got, want)
		}
	}
}

func TestMerge_Defaults(t *testing.T) {
	inventory := []domain.InventoryRow{
		{SKU: "K1", Warehouse: "01P", ProductName: "Known", Stock: 4},
		{SKU: "U1", Warehouse: "01P", ProductName: "Unknown", Stock: 9},
	}
	rots := rotations(rot("K1", "01P", 30, 60, 90))
	classes := map[domain.Key]domain.Class{{SKU: "K1", Warehouse: "01P"}: domain.ClassA}

	got := Merge(inventory, rots, classes)
	if len(got) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(got))
	}
	if got[0].Class != domain.ClassA || got[0].Rotation.Rot30 != 30 {
		t.Fatalf("unexpected known position %+v", got[0])
	}
	if got[1].Class != domain.ClassD || got[1].Rotation.Rot90 != 0 || got[1].Rotation.SKU != "U1" {
		t.Fatalf("unexpected default position %+v", got[1])
	}
}

func TestSuggestions_EndToEnd(t *testing.T) {
	inventory := []domain.InventoryRow{
		{SKU: "X1", Warehouse: "01P", Stock: 10},
		{SKU: "Y1", Warehouse: "01P", Stock: 500},
		{SKU: "Z1", Warehouse: "01P", Stock: 1},
	}
	rots := rotations(
		rot("X1", "01P", 90, 90, 90),
		rot("Y1", "01P", 10, 10, 10),
	)
	classes := IndexClasses(Classify(inventory, rots))

	got := Suggestions(Merge(inventory, rots, classes))
	if len(got) != 1 {
		t.Fatalf("expected one suggestion, got %+v", got)
	}
	// X1 holds 0.9 of the warehouse rotation: class B, 20 days at 3 per day.
	if got[0].SKU != "X1" || got[0].Class != domain.ClassB || got[0].SuggestedQty != 50 {
		t.Fatalf("unexpected suggestion %+v", got[0])
	}
}

func TestDaysOfInventory(t *testing.T) {
	cases := []struct {
		stock, rot90 float64
		days         float64
		ok           bool
	}{
		{0, 50, 0, true},
		{10, 0, NoRotationDays, true},
		{10, -4, NoRotationDays, true},
		{10, 90, 10, true},
		{10, 60, 15, true},
		{-3, 90, -3, true},
		{-3, 0, 0, false},
	}
	for _, tc := range cases {
		days, ok := DaysOfInventory(tc.stock, tc.rot90)
		if ok != tc.ok || (ok && days != tc.days) {
			t.Fatalf("DaysOfInventory(%v, %v) = %v, %v; expected %v, %v", tc.stock, tc.rot90, days, ok, tc.days, tc.ok)
		}
	}
}
