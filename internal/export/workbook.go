// Package export renders dashboard datasets as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/erpsync/internal/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SuggestionsSheet = "Sugerido"
	AlertsSheet      = "Alertas"
)

var (
	suggestionHeadings = []string{"SKU", "Bodega", "Producto", "Stock", "Rot30", "Rot90", "Clase", "Dias objetivo", "Sugerido", "Estado"}
	alertHeadings      = []string{"SKU", "Bodega", "Producto", "Stock", "Rot30", "Rot60", "Rot90", "Estado", "Fecha"}
)

// ExcelExporter is a row that knows its cell values.
type ExcelExporter interface {
	GetCellValues() []any
}

type suggestionRow domain.SuggestionRecord

func (s suggestionRow) GetCellValues() []any {
	return []any{s.SKU, s.Warehouse, s.ProductName, s.Stock, s.Rot30, s.Rot90, string(s.Class), s.TargetDays, s.SuggestedQty, string(s.Status)}
}

type alertRow domain.StockAlert

func (a alertRow) GetCellValues() []any {
	return []any{a.SKU, a.Warehouse, a.ProductName, a.Stock, a.Rot30, a.Rot60, a.Rot90, string(a.Status), a.CreatedAt}
}

// Workbook builds a workbook with a suggestions sheet and, when alerts is
// not nil, a stock alerts sheet.
func Workbook(suggestions []domain.SuggestionRecord, alerts []domain.StockAlert) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	rows := make([]ExcelExporter, len(suggestions))
	for i, s := range suggestions {
		rows[i] = suggestionRow(s)
	}
	if err := f.SetSheetName("Sheet1", SuggestionsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, SuggestionsSheet, suggestionHeadings, rows); err != nil {
		return nil, err
	}

	if alerts != nil {
		if _, err := f.NewSheet(AlertsSheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", AlertsSheet, err)
		}
		rows := make([]ExcelExporter, len(alerts))
		for i, a := range alerts {
			rows[i] = alertRow(a)
		}
		if err := writeSheet(f, AlertsSheet, alertHeadings, rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headings []string, data []ExcelExporter) error {
	header := make([]any, len(headings))
	for i, h := range headings {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, d := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := d.GetCellValues()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
