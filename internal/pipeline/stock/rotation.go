package stock

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// DateLayout is the ERP date format of a sale line.
const DateLayout = "20060102"

// ParseDate parses a YYYYMMDD date. Trailing time parts ("20240115 10:30:00")
// are ignored.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, raw[:len(DateLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Windows are the inclusive lower bounds of the trailing rotation windows.
type Windows struct {
	From30 time.Time
	From60 time.Time
	From90 time.Time
}

// NewWindows anchors the windows at the start of the reference day.
func NewWindows(ref time.Time) Windows {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return Windows{
		From30: day.AddDate(0, 0, -30),
		From60: day.AddDate(0, 0, -60),
		From90: day.AddDate(0, 0, -90),
	}
}

// Aggregate reduces sale events into rotation totals per (SKU, warehouse).
// Windows are nested: an event counted in rot30 is also counted in rot60 and
// rot90. Events with an unparseable date are skipped.
func Aggregate(events []domain.SaleEvent, ref time.Time) map[domain.Key]domain.RotationRecord {
	w := NewWindows(ref)
	out := make(map[domain.Key]domain.RotationRecord)

	for _, ev := range events {
		date, ok := ParseDate(ev.Date, ref.Location())
		if !ok {
			continue
		}

		key := domain.Key{SKU: ev.SKU, Warehouse: ev.Warehouse}
		rec, seen := out[key]
		if !seen {
			rec = domain.RotationRecord{SKU: ev.SKU, Warehouse: ev.Warehouse}
		}

		if !date.Before(w.From90) {
			rec.Rot90 += ev.Quantity
			if !date.Before(w.From60) {
				rec.Rot60 += ev.Quantity
				if !date.Before(w.From30) {
					rec.Rot30 += ev.Quantity
				}
			}
		}

		out[key] = rec
	}

	return out
}

// SortedRotations flattens a rotation map ordered by warehouse then SKU.
func SortedRotations(m map[domain.Key]domain.RotationRecord) []domain.RotationRecord {
	out := make([]domain.RotationRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Warehouse != out[j].Warehouse {
			return out[i].Warehouse < out[j].Warehouse
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

// IndexRotations builds a lookup from a rotation slice.
func IndexRotations(rows []domain.RotationRecord) map[domain.Key]domain.RotationRecord {
	out := make(map[domain.Key]domain.RotationRecord, len(rows))
	for _, r := range rows {
		out[domain.Key{SKU: r.SKU, Warehouse: r.Warehouse}] = r
	}
	return out
}
