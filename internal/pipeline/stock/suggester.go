package stock

import (
	"math"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// Position is one inventory row joined with its rotation and class. Missing
// rotation counts as zero, a missing class as D.
type Position struct {
	SKU         string
	Warehouse   string
	ProductName string
	Stock       float64
	Rotation    domain.RotationRecord
	Class       domain.Class
}

// Merge joins inventory with rotations and classes. Inventory is the universe:
// every row yields exactly one position, in input order.
func Merge(inventory []domain.InventoryRow, rotations map[domain.Key]domain.RotationRecord, classes map[domain.Key]domain.Class) []Position {
	out := make([]Position, 0, len(inventory))
	for _, inv := range inventory {
		key := domain.Key{SKU: inv.SKU, Warehouse: inv.Warehouse}

		rot, ok := rotations[key]
		if !ok {
			rot = domain.RotationRecord{SKU: inv.SKU, Warehouse: inv.Warehouse}
		}
		class, ok := classes[key]
		if !ok {
			class = domain.ClassD
		}

		out = append(out, Position{
			SKU:         inv.SKU,
			Warehouse:   inv.Warehouse,
			ProductName: inv.ProductName,
			Stock:       inv.Stock,
			Rotation:    rot,
			Class:       class,
		})
	}
	return out
}

// TargetDays returns the coverage target of a class.
func TargetDays(class domain.Class) int {
	switch class {
	case domain.ClassA:
		return 30
	case domain.ClassB:
		return 20
	case domain.ClassC:
		return 10
	default:
		return 0
	}
}

// Suggest computes the purchase suggestion of a position. ok is false when
// nothing needs to be bought.
func Suggest(p Position) (domain.SuggestionRecord, bool) {
	// 1. Target coverage from the class
	target := TargetDays(p.Class)

	// 2. Units needed to cover the target at the 30 day rate, minus stock
	raw := p.Rotation.Rot30*float64(target)/30 - p.Stock

	// 3. Round up, never negative
	qty := int(math.Ceil(math.Max(0, raw)))
	if qty <= 0 {
		return domain.SuggestionRecord{}, false
	}

	return domain.SuggestionRecord{
		SKU:          p.SKU,
		Warehouse:    p.Warehouse,
		ProductName:  p.ProductName,
		Stock:        p.Stock,
		Rot30:        p.Rotation.Rot30,
		Rot90:        p.Rotation.Rot90,
		Class:        p.Class,
		TargetDays:   target,
		SuggestedQty: qty,
		Status:       Evaluate(FiguresFor(p.Stock, p.Rotation)),
	}, true
}

// Suggestions returns the positive suggestions of all positions.
func Suggestions(positions []Position) []domain.SuggestionRecord {
	out := make([]domain.SuggestionRecord, 0)
	for _, p := range positions {
		if s, ok := Suggest(p); ok {
			out = append(out, s)
		}
	}
	return out
}
