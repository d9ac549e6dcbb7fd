// Package locate picks the sleep onset and offset periods for a calendar date.
package locate

import (
	"sort"
	"time"

	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/segment"
)

// window is an interval of instants. The lower bound is closed unless
// openFrom is set; the upper bound is always open.
type window struct {
	from     time.Time
	to       time.Time
	openFrom bool
}

func (w window) contains(t time.Time) bool {
	if w.openFrom && !t.After(w.from) {
		return false
	}
	return !t.Before(w.from) && t.Before(w.to)
}

// onsetWindows are tried in order; the first period starting inside a window wins.
func onsetWindows(date time.Time) []window {
	next := date.AddDate(0, 0, 1)
	return []window{
		{from: epoch.At(date, 19, 29, 0), to: epoch.At(date, 23, 30, 1)},
		{from: epoch.At(date, 17, 29, 0), to: epoch.At(date, 23, 30, 1)},
		{from: epoch.At(date, 17, 29, 0), to: epoch.At(next, 8, 0, 1)},
	}
}

// offsetWindows all fall on the morning after date and are open at both ends.
func offsetWindows(date time.Time) []window {
	next := date.AddDate(0, 0, 1)
	return []window{
		{from: epoch.At(next, 5, 59, 59), to: epoch.At(next, 9, 0, 1), openFrom: true},
		{from: epoch.At(next, 3, 59, 59), to: epoch.At(next, 9, 0, 1), openFrom: true},
		{from: epoch.At(next, 3, 59, 59), to: epoch.At(next, 10, 0, 1), openFrom: true},
	}
}

// Onset returns the sleep period whose start marks falling asleep on date.
// Within a window the earliest-starting period wins.
func Onset(date time.Time, periods []segment.Period) (segment.Period, bool) {
	sorted := byStart(periods)
	for _, w := range onsetWindows(epoch.DateOf(date)) {
		for _, p := range sorted {
			if w.contains(p.Start) {
				return p, true
			}
		}
	}
	return segment.Period{}, false
}

// Offset returns the sleep period whose start marks waking on the morning
// after date. Only periods starting after the onset are eligible and within a
// window the latest-starting period wins.
func Offset(date time.Time, periods []segment.Period, onset segment.Period, found bool) (segment.Period, bool) {
	if !found {
		return segment.Period{}, false
	}

	sorted := byStart(periods)
	candidates := make([]segment.Period, 0, len(sorted))
	for _, p := range sorted {
		if p.Start.After(onset.Start) {
			candidates = append(candidates, p)
		}
	}

	for _, w := range offsetWindows(epoch.DateOf(date)) {
		for i := len(candidates) - 1; i >= 0; i-- {
			if w.contains(candidates[i].Start) {
				return candidates[i], true
			}
		}
	}
	return segment.Period{}, false
}

// Night resolves both onset and offset for date.
func Night(date time.Time, periods []segment.Period) (onset *segment.Period, offset *segment.Period) {
	on, ok := Onset(date, periods)
	if !ok {
		return nil, nil
	}
	onset = &on
	if off, ok := Offset(date, periods, on, true); ok {
		offset = &off
	}
	return onset, offset
}

func byStart(periods []segment.Period) []segment.Period {
	sorted := make([]segment.Period, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}
