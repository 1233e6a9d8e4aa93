package stock

import "math"

// NoRotationDays is reported when there is stock but nothing sold in 90 days.
const NoRotationDays = 10000

// DaysOfInventory estimates how many days the stock lasts at the 90 day rate.
// ok is false when it cannot be computed (negative stock without rotation).
func DaysOfInventory(stock, rot90 float64) (days float64, ok bool) {
	daily90 := rot90 / 90
	switch {
	case stock == 0:
		return 0, true
	case stock > 0 && rot90 <= 0:
		return NoRotationDays, true
	case daily90 > 0:
		return roundFloat(stock/daily90, 0), true
	default:
		return 0, false
	}
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
