package stock

import (
	"reflect"
	"testing"

	"github.com/andresuchdata/erpsync/internal/domain"
)

func inv(sku, warehouse string, stock float64) domain.InventoryRow {
	return domain.InventoryRow{SKU: sku, Warehouse: warehouse, Stock: stock}
}

func rotations(rows ...domain.RotationRecord) map[domain.Key]domain.RotationRecord {
	return IndexRotations(rows)
}

func rot(sku, warehouse string, r30, r60, r90 float64) domain.RotationRecord {
	return domain.RotationRecord{SKU: sku, Warehouse: warehouse, Rot30: r30, Rot60: r60, Rot90: r90}
}

func classOf(t *testing.T, rows []domain.ClassificationRecord, sku, warehouse string) domain.Class {
	t.Helper()
	for _, r := range rows {
		if r.SKU == sku && r.Warehouse == warehouse {
			return r.Class
		}
	}
	t.Fatalf("no classification for %s/%s", sku, warehouse)
	return ""
}

func TestClassify_Thresholds(t *testing.T) {
	inventory := []domain.InventoryRow{
		inv("S4", "01P", 1),
		inv("S2", "01P", 1),
		inv("S1", "01P", 1),
		inv("S3", "01P", 1),
		inv("S5", "01P", 1),
	}
	rots := rotations(
		rot("S1", "01P", 0, 0, 50),
		rot("S2", "01P", 0, 0, 20),
		rot("S3", "01P", 0, 0, 20),
		rot("S4", "01P", 0, 0, 10),
	)

	got := Classify(inventory, rots)
	want := []domain.ClassificationRecord{
		{SKU: "S1", Warehouse: "01P", Rot90: 50, Class: domain.ClassA},
		{SKU: "S2", Warehouse: "01P", Rot90: 20, Class: domain.ClassA}, // share exactly 0.70
		{SKU: "S3", Warehouse: "01P", Rot90: 20, Class: domain.ClassB}, // share exactly 0.90
		{SKU: "S4", Warehouse: "01P", Rot90: 10, Class: domain.ClassC},
		{SKU: "S5", Warehouse: "01P", Rot90: 0, Class: domain.ClassD},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected classification\n got: %+v\nwant: %+v", got, want)
	}
}

func TestClassify_TiesKeepInventoryOrder(t *testing.T) {
	inventory := []domain.InventoryRow{inv("T2", "01P", 0), inv("T1", "01P", 0), inv("BIG", "01P", 0)}
	rots := rotations(rot("T1", "01P", 0, 0, 15), rot("T2", "01P", 0, 0, 15), rot("BIG", "01P", 0, 0, 70))

	got := Classify(inventory, rots)
	if got[0].SKU != "BIG" || got[1].SKU != "T2" || got[2].SKU != "T1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Class != domain.ClassB || got[2].Class != domain.ClassC {
		t.Fatalf("tie-break should put T2 in B and T1 in C, got %+v", got)
	}
}

func TestClassify_WarehousesAreIndependent(t *testing.T) {
	inventory := []domain.InventoryRow{
		inv("S1", "01P", 0), inv("S2", "01P", 0),
		inv("S1", "02P", 0), inv("S2", "02P", 0),
		inv("Z1", "03R", 0), inv("Z2", "03R", 0),
	}
	rots := rotations(
		rot("S1", "01P", 0, 0, 90), rot("S2", "01P", 0, 0, 10),
		rot("S1", "02P", 0, 0, 10), rot("S2", "02P", 0, 0, 90),
	)

	got := Classify(inventory, rots)
	if len(got) != 4 {
		t.Fatalf("warehouse without rotation must produce no rows, got %d rows", len(got))
	}
	if classOf(t, got, "S1", "01P") == classOf(t, got, "S1", "02P") {
		t.Fatal("S1 should rank differently per warehouse")
	}
}

func TestClassify_InactiveAndMissingAreD(t *testing.T) {
	inventory := []domain.InventoryRow{inv("ACT", "01P", 0), inv("NEG", "01P", 0), inv("NONE", "01P", 0)}
	rots := rotations(rot("ACT", "01P", 0, 0, 5), rot("NEG", "01P", 0, 0, -3), rot("GHOST", "01P", 0, 0, 100))

	got := Classify(inventory, rots)
	if len(got) != 3 {
		t.Fatalf("rotation rows outside the inventory must be ignored, got %+v", got)
	}
	if classOf(t, got, "ACT", "01P") != domain.ClassC {
		t.Fatalf("single active SKU has share 1.0 and is C")
	}
	if classOf(t, got, "NEG", "01P") != domain.ClassD || classOf(t, got, "NONE", "01P") != domain.ClassD {
		t.Fatalf("expected D for negative and missing rotation, got %+v", got)
	}
}

func TestClassify_DuplicateInventoryRows(t *testing.T) {
	inventory := []domain.InventoryRow{inv("S1", "01P", 1), inv("S1", "01P", 2)}
	got := Classify(inventory, rotations(rot("S1", "01P", 0, 0, 1)))
	if len(got) != 1 {
		t.Fatalf("expected one row per pair, got %d", len(got))
	}
}

func TestClassify_BoundaryProperty(t *testing.T) {
	values := []float64{40, 3, 17, 8, 8, 1, 12, 5, 2, 4}
	inventory := make([]domain.InventoryRow, 0, len(values))
	rows := make([]domain.RotationRecord, 0, len(values))
	var total float64
	for i, v := range values {
		sku := string(rune('a' + i))
		inventory = append(inventory, inv(sku, "01P", 0))
		rows = append(rows, rot(sku, "01P", 0, 0, v))
		total += v
	}

	got := Classify(inventory, rotations(rows...))

	var running float64
	prev := domain.ClassA
	for _, r := range got {
		running += r.Rot90
		share := running / total
		switch r.Class {
		case domain.ClassA:
			if share > ShareA {
				t.Fatalf("%s is A with share %v", r.SKU, share)
			}
		case domain.ClassB:
			if share <= ShareA || share > ShareB {
				t.Fatalf("%s is B with share %v", r.SKU, share)
			}
		case domain.ClassC:
			if share <= ShareB {
				t.Fatalf("%s is C with share %v", r.SKU, share)
			}
		}
		if r.Class < prev {
			t.Fatalf("classes must not go back from %s to %s", prev, r.Class)
		}
		prev = r.Class
	}
}

func TestClassify_Idempotent(t *testing.T) {
	inventory := []domain.InventoryRow{inv("A1", "01P", 0), inv("A2", "01P", 0), inv("A3", "02P", 0)}
	rots := rotations(rot("A1", "01P", 0, 0, 3), rot("A2", "01P", 0, 0, 3), rot("A3", "02P", 0, 0, 1))

	first := Classify(inventory, rots)
	second := Classify(inventory, rots)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification is not deterministic\n%+v\n%+v", first, second)
	}
}

func TestClassify_DominantSKUScenario(t *testing.T) {
	inventory := []domain.InventoryRow{inv("X1", "01P", 0)}
	rows := []domain.RotationRecord{rot("X1", "01P", 0, 0, 90)}
	for i, v := range []float64{1, 1, 2, 2, 2, 2} {
		sku := string(rune('K' + i))
		inventory = append(inventory, inv(sku, "01P", 0))
		rows = append(rows, rot(sku, "01P", 0, 0, v))
	}

	got := Classify(inventory, rotations(rows...))
	if len(got) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(got))
	}
	if got[0].SKU != "X1" {
		t.Fatalf("X1 should rank first, got %s", got[0].SKU)
	}
	// X1 alone reaches a cumulative share of 0.90, inside the B band.
	if got[0].Class != domain.ClassB {
		t.Fatalf("X1 expected B, got %s", got[0].Class)
	}
	for _, r := range got[1:] {
		if r.Class != domain.ClassC {
			t.Fatalf("%s expected C, got %s", r.SKU, r.Class)
		}
	}
}
