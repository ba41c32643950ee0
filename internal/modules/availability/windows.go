package availability

import (
	"sort"

	"coworking/internal/domain"
)

// mergeBusy clips intervals to window and merges overlapping or touching ones.
func mergeBusy(window domain.Interval, busy []domain.Interval) []domain.Interval {
	sorted := make([]domain.Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := make([]domain.Interval, 0, len(sorted))
	for _, s := range sorted {
		if !s.End.After(window.Start) || !s.Start.Before(window.End) {
			continue
		}
		if s.Start.Before(window.Start) {
			s.Start = window.Start
		}
		if s.End.After(window.End) {
			s.End = window.End
		}

		if len(merged) == 0 {
			merged = append(merged, s)
			continue
		}
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

// subtractBusy returns the gaps of window not covered by merged busy intervals.
func subtractBusy(window domain.Interval, merged []domain.Interval) []domain.Interval {
	cur := window.Start
	out := make([]domain.Interval, 0, len(merged)+1)
	for _, b := range merged {
		if b.Start.After(cur) {
			out = append(out, domain.Interval{Start: cur, End: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
	}
	if window.End.After(cur) {
		out = append(out, domain.Interval{Start: cur, End: window.End})
	}
	return out
}
