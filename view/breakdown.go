package view

import (
	"sort"

	"loov.dev/eventview/trace"
)

// Slice is the share of one type in an aggregate.
type Slice struct {
	Type     trace.Type
	Duration trace.Time
	Percent  float64
}

// Breakdown orders the non-zero entries of agg by descending time. Percent
// is relative to the sum of agg.
func Breakdown(agg trace.Aggregate) []Slice {
	total := agg.Total()
	slices := make([]Slice, 0, len(agg))
	for _, t := range trace.Types() {
		d := agg[t]
		if d <= 0 {
			continue
		}
		s := Slice{Type: t, Duration: d}
		if total > 0 {
			s.Percent = float64(d / total * 100)
		}
		slices = append(slices, s)
	}

	sort.SliceStable(slices, func(i, k int) bool {
		return slices[i].Duration > slices[k].Duration
	})
	return slices
}
