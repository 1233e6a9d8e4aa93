package stock

import (
	"testing"
	"time"

	"github.com/andresuchdata/erpsync/internal/domain"
)

var refTime = time.Date(2024, time.June, 30, 15, 4, 5, 0, time.UTC)

func TestAggregate_NestedWindows(t *testing.T) {
	events := []domain.SaleEvent{
		{SKU: "S1", Warehouse: "01P", Quantity: 5, Date: "20240630"},
		{SKU: "S1", Warehouse: "01P", Quantity: 2, Date: "20240531"},          // 30 day boundary
		{SKU: "S1", Warehouse: "01P", Quantity: 3, Date: "20240530"},          // 60 only
		{SKU: "S1", Warehouse: "01P", Quantity: 4, Date: "20240501 08:15:00"}, // 60 day boundary
		{SKU: "S1", Warehouse: "01P", Quantity: 1, Date: "20240430"},          // 90 only
		{SKU: "S1", Warehouse: "01P", Quantity: 7, Date: "20240401"},          // 90 day boundary
		{SKU: "S1", Warehouse: "01P", Quantity: 100, Date: "20240331"},        // too old
		{SKU: "S1", Warehouse: "01P", Quantity: 50, Date: "not-a-date"},
		{SKU: "S1", Warehouse: "01P", Quantity: -1, Date: "20240615"}, // return
	}

	got := Aggregate(events, refTime)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	rec := got[domain.Key{SKU: "S1", Warehouse: "01P"}]
	if rec.Rot30 != 6 || rec.Rot60 != 13 || rec.Rot90 != 21 {
		t.Fatalf("unexpected rotation %+v", rec)
	}
}

func TestAggregate_KeysBySKUAndWarehouse(t *testing.T) {
	events := []domain.SaleEvent{
		{SKU: "S1", Warehouse: "01P", Quantity: 1, Date: "20240620"},
		{SKU: "S1", Warehouse: "02P", Quantity: 2, Date: "20240620"},
		{SKU: "S2", Warehouse: "01P", Quantity: 3, Date: "20240620"},
		{SKU: "S1", Warehouse: "01P", Quantity: 4, Date: "20240621"},
	}

	got := Aggregate(events, refTime)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if r := got[domain.Key{SKU: "S1", Warehouse: "01P"}]; r.Rot30 != 5 {
		t.Fatalf("S1/01P rot30 expected 5, got %v", r.Rot30)
	}
	if r := got[domain.Key{SKU: "S1", Warehouse: "02P"}]; r.Rot90 != 2 {
		t.Fatalf("S1/02P rot90 expected 2, got %v", r.Rot90)
	}
}

func TestAggregate_OldEventCreatesEmptyRecord(t *testing.T) {
	got := Aggregate([]domain.SaleEvent{
		{SKU: "OLD", Warehouse: "01P", Quantity: 9, Date: "20230101"},
		{SKU: "BAD", Warehouse: "01P", Quantity: 9, Date: "2023"},
	}, refTime)

	rec, ok := got[domain.Key{SKU: "OLD", Warehouse: "01P"}]
	if !ok {
		t.Fatal("expected record for old event")
	}
	if rec.Rot30 != 0 || rec.Rot60 != 0 || rec.Rot90 != 0 {
		t.Fatalf("expected zero rotation, got %+v", rec)
	}
	if _, ok := got[domain.Key{SKU: "BAD", Warehouse: "01P"}]; ok {
		t.Fatal("unparseable date must not create a record")
	}
}

func TestAggregate_WindowMembershipProperty(t *testing.T) {
	w := NewWindows(refTime)
	for offset := 0; offset <= 120; offset++ {
		date := refTime.AddDate(0, 0, -offset)
		got := Aggregate([]domain.SaleEvent{
			{SKU: "P", Warehouse: "01P", Quantity: 1, Date: date.Format(DateLayout)},
		}, refTime)[domain.Key{SKU: "P", Warehouse: "01P"}]

		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		want30 := !day.Before(w.From30)
		want60 := !day.Before(w.From60)
		want90 := !day.Before(w.From90)

		if (got.Rot30 == 1) != want30 || (got.Rot60 == 1) != want60 || (got.Rot90 == 1) != want90 {
			t.Fatalf("offset %d: got %+v, want 30=%v 60=%v 90=%v", offset, got, want30, want60, want90)
		}
		if got.Rot30 > got.Rot60 || got.Rot60 > got.Rot90 {
			t.Fatalf("offset %d: windows not nested: %+v", offset, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"20240115", true},
		{" 20240115 10:30:00", true},
		{"2024011", false},
		{"20241315", false},
		{"", false},
	}
	for _, tc := range cases {
		if _, ok := ParseDate(tc.in, time.UTC); ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
	}
}

func TestSortedRotations(t *testing.T) {
	m := map[domain.Key]domain.RotationRecord{
		{SKU: "B", Warehouse: "02P"}: {SKU: "B", Warehouse: "02P"},
		{SKU: "B", Warehouse: "01P"}: {SKU: "B", Warehouse: "01P"},
		{SKU: "A", Warehouse: "02P"}: {SKU: "A", Warehouse: "02P"},
	}
	got := SortedRotations(m)
	want := []domain.Key{{SKU: "B", Warehouse: "01P"}, {SKU: "A", Warehouse: "02P"}, {SKU: "B", Warehouse: "02P"}}
	for i, k := range want {
		if got[i].SKU != k.SKU || got[i].Warehouse != k.Warehouse {
			t.Fatalf("position %d: got %s/%s, expected %s/%s", i, got[i].SKU, got[i].Warehouse, k.SKU, k.Warehouse)
		}
	}
}
