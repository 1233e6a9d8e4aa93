package supplier

import (
	"time"

	"github.com/andresuchdata/erpsync/internal/domain"
)

// Reconcile carries the previously stored price and availability into the
// fresh catalog and returns an alert for every known SKU whose availability
// switched between zero and non-zero or whose price moved. New SKUs raise no
// alert.
func Reconcile(previous map[string]domain.SupplierProduct, current []domain.SupplierProduct, now time.Time) ([]domain.SupplierProduct, []domain.SupplierAlert) {
	merged := make([]domain.SupplierProduct, 0, len(current))
	var alerts []domain.SupplierAlert

	for _, p := range current {
		old, known := previous[p.SKU]
		if !known {
			merged = append(merged, p)
			continue
		}

		p.PreviousRealPrice = old.RealPrice
		p.PreviousAvailable = old.Available
		merged = append(merged, p)

		var inventoryState, priceState string
		switch {
		case old.Available > 0 && p.Available <= 0:
			inventoryState = domain.InventorySoldOut
		case old.Available <= 0 && p.Available > 0:
			inventoryState = domain.InventoryAvailable
		}
		switch p.RealPrice.Cmp(old.RealPrice) {
		case 1:
			priceState = domain.PriceUp
		case -1:
			priceState = domain.PriceDown
		}

		var kind domain.AlertKind
		switch {
		case inventoryState != "" && priceState != "":
			kind = domain.AlertBoth
		case inventoryState != "":
			kind = domain.AlertInventory
		case priceState != "":
			kind = domain.AlertPrice
		default:
			continue
		}

		alerts = append(alerts, domain.SupplierAlert{
			SKU:               p.SKU,
			Description:       p.Description,
			Available:         p.Available,
			PreviousAvailable: old.Available,
			RealPrice:         p.RealPrice,
			PreviousRealPrice: old.RealPrice,
			InventoryState:    inventoryState,
			PriceState:        priceState,
			Kind:              kind,
			CreatedAt:         now,
		})
	}

	return merged, alerts
}
