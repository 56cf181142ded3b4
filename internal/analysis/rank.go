package analysis

import "sort"

// RankByRevenue sorts a copy of points by tax revenue, highest first, so the
// head is the revenue-maximizing rate on the grid. Ties keep the lower rate.
func RankByRevenue(points []SweepPoint) []SweepPoint {
	out := make([]SweepPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TaxRevenue > out[j].TaxRevenue
	})
	return out
}
