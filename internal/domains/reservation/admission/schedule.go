package admission

import (
	"reserve/internal/domains/reservation/model"
	"slices"
)

// Busy returns the sorted, merged intervals inside window covered by active
// reservations. Adjacent reservations merge into one busy block.
func Busy(active []model.Reservation, window Interval) []Interval {
	if !window.Valid() {
		return nil
	}

	clipped := make([]Interval, 0, len(active))

	for _, r := range active {
		if !r.IsActive() {
			continue
		}

		interval := IntervalOf(r)
		if !Overlaps(interval, window) {
			continue
		}

		if interval.Start.Before(window.Start) {
			interval.Start = window.Start
		}

		if interval.End.After(window.End) {
			interval.End = window.End
		}

		clipped = append(clipped, interval)
	}

	slices.SortFunc(clipped, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	merged := make([]Interval, 0, len(clipped))

	for _, interval := range clipped {
		last := len(merged) - 1
		if last >= 0 && !interval.Start.After(merged[last].End) {
			if interval.End.After(merged[last].End) {
				merged[last].End = interval.End
			}

			continue
		}

		merged = append(merged, interval)
	}

	return merged
}

// Free returns the gaps inside window not covered by Busy.
func Free(active []model.Reservation, window Interval) []Interval {
	if !window.Valid() {
		return nil
	}

	free := []Interval{}
	cursor := window.Start

	for _, busy := range Busy(active, window) {
		if cursor.Before(busy.Start) {
			free = append(free, Interval{Start: cursor, End: busy.Start})
		}

		cursor = busy.End
	}

	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}

	return free
}
