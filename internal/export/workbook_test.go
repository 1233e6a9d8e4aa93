package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/erpsync/internal/domain"
)

func TestWorkbook(t *testing.T) {
	suggestions := []domain.SuggestionRecord{
		{SKU: "X1", Warehouse: "01P", ProductName: "Acetaminofen", Stock: 10, Rot30: 90, Rot90: 200, Class: domain.ClassB, TargetDays: 20, SuggestedQty: 50, Status: domain.StatusLowStock},
	}
	alerts := []domain.StockAlert{
		{IsCurrent: true, CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), StatusRecord: domain.StatusRecord{SKU: "X2", Warehouse: "02P", Status: domain.StatusOutOfStock}},
	}

	raw, err := Workbook(suggestions, alerts)
	if err != nil {
		t.Fatalf("Workbook error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SuggestionsSheet || sheets[1] != AlertsSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	checks := map[string]string{"A1": "SKU", "A2": "X1", "G2": "B", "I2": "50", "J2": "BAJO STOCK"}
	for cell, want := range checks {
		got, err := f.GetCellValue(SuggestionsSheet, cell)
		if err != nil || got != want {
			t.Fatalf("%s = %q (%v), expected %q", cell, got, err, want)
		}
	}
	if got, _ := f.GetCellValue(AlertsSheet, "H2"); got != "FALTANTE" {
		t.Fatalf("alert status = %q", got)
	}
}

func TestWorkbook_NoAlertsSheet(t *testing.T) {
	raw, err := Workbook(nil, nil)
	if err != nil {
		t.Fatalf("Workbook error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader error: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 {
		t.Fatalf("expected only the suggestions sheet, got %v", sheets)
	}
}
