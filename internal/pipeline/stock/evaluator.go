package stock

import "github.com/andresuchdata/erpsync/internal/domain"

// Coverage thresholds in days.
const (
	CriticalDays  = 4
	LowStockDays  = 7
	OverstockDays = 90
)

// Figures is the input of the status evaluation. A daily rate that is zero or
// negative makes its coverage check not applicable.
type Figures struct {
	Stock   float64
	Rot30   float64
	Rot60   float64
	Rot90   float64
	Daily30 float64
	Daily90 float64
}

// FiguresFor builds evaluation figures from stock and a rotation record.
func FiguresFor(stock float64, rot domain.RotationRecord) Figures {
	return Figures{
		Stock:   stock,
		Rot30:   rot.Rot30,
		Rot60:   rot.Rot60,
		Rot90:   rot.Rot90,
		Daily30: rot.Daily30(),
		Daily90: rot.Daily90(),
	}
}

// Evaluate derives the stock status. The first matching rule wins.
func Evaluate(f Figures) domain.StockStatus {
	// 1. Nothing on hand
	if f.Stock <= 0 {
		if f.Rot30 > 0 || f.Rot60 > 0 || f.Rot90 > 0 {
			return domain.StatusOutOfStock
		}
		return domain.StatusNoMovement
	}

	// 2-3. Short coverage at the 30 day rate
	if f.Daily30 > 0 {
		coverage := f.Stock / f.Daily30
		if coverage <= CriticalDays {
			return domain.StatusCritical
		}
		if coverage <= LowStockDays {
			return domain.StatusLowStock
		}
	}

	// 4. Long coverage at the 90 day rate
	if f.Daily90 > 0 && f.Stock/f.Daily90 >= OverstockDays {
		return domain.StatusOverstock
	}

	// 5. Everything else
	return domain.StatusOK
}

// Alerts evaluates every inventory row that has a rotation record and keeps
// only the statuses that raise an alert.
func Alerts(inventory []domain.InventoryRow, rotations map[domain.Key]domain.RotationRecord) []domain.StatusRecord {
	out := make([]domain.StatusRecord, 0)
	for _, inv := range inventory {
		rot, ok := rotations[domain.Key{SKU: inv.SKU, Warehouse: inv.Warehouse}]
		if !ok {
			continue
		}

		status := Evaluate(FiguresFor(inv.Stock, rot))
		if !status.IsAlert() {
			continue
		}

		out = append(out, domain.StatusRecord{
			SKU:         inv.SKU,
			Warehouse:   inv.Warehouse,
			ProductName: inv.ProductName,
			Stock:       inv.Stock,
			Rot30:       rot.Rot30,
			Rot60:       rot.Rot60,
			Rot90:       rot.Rot90,
			Status:      status,
		})
	}
	return out
}
