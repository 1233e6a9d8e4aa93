package erp

import "time"

// DateRange is an inclusive range of YYYYMMDD dates.
type DateRange struct {
	From string
	To   string
}

// SalesWindows splits the last 90 days into three non-overlapping 30 day
// ranges, oldest first. The sales service rejects longer ranges.
func SalesWindows(ref time.Time) []DateRange {
	back := func(days int) string { return ref.AddDate(0, 0, -days).Format(dayLayout) }
	return []DateRange{
		{From: back(89), To: back(60)},
		{From: back(59), To: back(30)},
		{From: back(29), To: back(0)},
	}
}

// LastDays returns the range covering the last n days including ref.
func LastDays(ref time.Time, n int) DateRange {
	return DateRange{
		From: ref.AddDate(0, 0, -(n - 1)).Format(dayLayout),
		To:   ref.Format(dayLayout),
	}
}
