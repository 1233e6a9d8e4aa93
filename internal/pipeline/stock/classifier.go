package stock

import (
	"sort"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// Cumulative share thresholds. Boundaries belong to the lower class.
const (
	ShareA = 0.70
	ShareB = 0.90
)

// Classify assigns an ABC class to every (SKU, warehouse) of the inventory.
// Pairs without rotation count as zero. Each warehouse is ranked on its own;
// a warehouse without any active SKU produces no records. Equal rotations keep
// inventory order.
func Classify(inventory []domain.InventoryRow, rotations map[domain.Key]domain.RotationRecord) []domain.ClassificationRecord {
	type item struct {
		sku   string
		rot90 float64
	}

	var order []string
	byWarehouse := make(map[string][]item)
	seen := make(map[domain.Key]bool, len(inventory))

	for _, inv := range inventory {
		key := domain.Key{SKU: inv.SKU, Warehouse: inv.Warehouse}
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, ok := byWarehouse[inv.Warehouse]; !ok {
			order = append(order, inv.Warehouse)
		}
		byWarehouse[inv.Warehouse] = append(byWarehouse[inv.Warehouse], item{
			sku:   inv.SKU,
			rot90: rotations[key].Rot90,
		})
	}

	out := make([]domain.ClassificationRecord, 0, len(inventory))
	for _, warehouse := range order {
		items := byWarehouse[warehouse]

		// 1. Split active and inactive SKUs. Net returns (rot90 < 0) are inactive.
		var active, inactive []item
		for _, it := range items {
			if it.rot90 > 0 {
				active = append(active, it)
			} else {
				inactive = append(inactive, it)
			}
		}
		if len(active) == 0 {
			continue
		}

		// 2. Rank by rotation, highest first
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].rot90 > active[j].rot90
		})

		// 3. Warehouse total
		var total float64
		for _, it := range active {
			total += it.rot90
		}

		// 4. Cumulative share walk
		var running float64
		for _, it := range active {
			running += it.rot90
			out = append(out, domain.ClassificationRecord{
				SKU:       it.sku,
				Warehouse: warehouse,
				Rot90:     it.rot90,
				Class:     classForShare(running / total),
			})
		}

		// 5. Zero rotation
		for _, it := range inactive {
			out = append(out, domain.ClassificationRecord{
				SKU:       it.sku,
				Warehouse: warehouse,
				Rot90:     it.rot90,
				Class:     domain.ClassD,
			})
		}
	}

	return out
}

func classForShare(share float64) domain.Class {
	switch {
	case share <= ShareA:
		return domain.ClassA
	case share <= ShareB:
		return domain.ClassB
	default:
		return domain.ClassC
	}
}

// IndexClasses builds a lookup from classification rows.
func IndexClasses(rows []domain.ClassificationRecord) map[domain.Key]domain.Class {
	out := make(map[domain.Key]domain.Class, len(rows))
	for _, r := range rows {
		out[domain.Key{SKU: r.SKU, Warehouse: r.Warehouse}] = r.Class
	}
	return out
}
