package supplier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// Page is one decoded catalog page.
type Page struct {
	Items      []map[string]any
	TotalPages int
}

// DecodePage parses a catalog response. The rows are taken from "rows" when
// present, otherwise from the most plausible array in the document. jqGrid
// rows ({"id":..,"cell":[..]}) are mapped to objects through the column model.
func DecodePage(raw []byte) (Page, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("decode catalog page: %w", err)
	}

	page := Page{}
	obj, _ := payload.(map[string]any)
	if obj != nil {
		page.TotalPages = int(toNumber(obj["total"]).IntPart())
	}

	arr := bestArray(payload)
	if len(arr) == 0 {
		return page, nil
	}

	cols := columnNames(obj)
	for _, el := range arr {
		row, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if cells, ok := row["cell"].([]any); ok {
			row = mapCells(cells, row["id"], cols)
		}
		page.Items = append(page.Items, row)
	}
	return page, nil
}

func bestArray(payload any) []any {
	if obj, ok := payload.(map[string]any); ok {
		if rows, ok := obj["rows"].([]any); ok {
			return rows
		}
	}

	var found [][]any
	collectArrays(payload, &found)
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(i, j int) bool {
		ai, aj := firstIsObject(found[i]), firstIsObject(found[j])
		if ai != aj {
			return ai
		}
		ci, cj := firstHasCell(found[i]), firstHasCell(found[j])
		if ci != cj {
			return ci
		}
		return len(found[i]) > len(found[j])
	})
	return found[0]
}

func collectArrays(node any, acc *[][]any) {
	switch v := node.(type) {
	case []any:
		*acc = append(*acc, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectArrays(v[k], acc)
		}
	}
}

func firstIsObject(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	_, ok := arr[0].(map[string]any)
	return ok
}

func firstHasCell(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	obj, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj["cell"]
	return ok
}

func columnNames(obj map[string]any) []string {
	if obj == nil {
		return nil
	}
	if model, ok := obj["colModel"].([]any); ok {
		names := make([]string, len(model))
		for i, c := range model {
			if m, ok := c.(map[string]any); ok {
				names[i], _ = m["name"].(string)
			}
		}
		return names
	}
	for _, key := range []string{"columns", "colNames"} {
		if list, ok := obj[key].([]any); ok {
			names := make([]string, len(list))
			for i, c := range list {
				names[i], _ = c.(string)
			}
			return names
		}
	}
	return nil
}

func mapCells(cells []any, id any, cols []string) map[string]any {
	out := make(map[string]any, len(cells)+1)
	for i, v := range cells {
		name := ""
		if i < len(cols) {
			name = cols[i]
		}
		if name == "" {
			name = fmt.Sprintf("col%d", i)
		}
		out[name] = v
	}
	if id != nil {
		out["id"] = id
	}
	return out
}

// toNumber parses numbers written either as "1.234,50" or "1,234.50".
// Currency symbols and other noise are ignored; unparseable input is zero.
func toNumber(v any) decimal.Decimal {
	var s string
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case json.Number:
		s = n.String()
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		s = n
	default:
		s = fmt.Sprint(n)
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Normalize maps a raw catalog item. ok is false when SKU or description
// is missing.
func Normalize(item map[string]any, now time.Time) (domain.SupplierProduct, bool) {
	p := domain.SupplierProduct{
		SKU:         text(item["material"]),
		Description: text(item["producto"]),
		Barcode:     text(item["codigoBarras"]),
		Vendor:      text(item["proveedor"]),
		ListPrice:   toNumber(item["corriente"]),
		RealPrice:   toNumber(item["real"]).Round(0),
		Bonus:       toNumber(item["bonificacion"]).InexactFloat64(),
		Available:   toNumber(item["disp"]).InexactFloat64(),
		MaxPerOrder: toNumber(item["maximoXPedido"]).InexactFloat64(),
		UpdatedAt:   now,
	}
	if p.SKU == "" || p.Description == "" {
		return domain.SupplierProduct{}, false
	}
	p.PreviousRealPrice = p.RealPrice
	p.PreviousAvailable = p.Available
	return p, true
}
