// Package segment groups classified epochs into bounded sleep periods.
package segment

import (
	"errors"
	"fmt"
	"time"

	"actigraph-sleep/internal/epoch"
)

const (
	// MinSeedEpochs is the shortest asleep run that can seed a sleep period.
	MinSeedEpochs = 15
	// WakeBoundary is the number of consecutive awake epochs that closes a period.
	WakeBoundary = 5
)

// ErrInconsistent signals a period whose indices disagree with the epoch arena.
var ErrInconsistent = errors.New("segment: inconsistent sleep period")

// Period is a sleep period expressed as an inclusive index range into the
// participant's epoch slice. First and Last always reference asleep epochs.
type Period struct {
	First int
	Last  int
	Start time.Time
	End   time.Time
}

// Len returns the number of member epochs, including absorbed awakenings.
func (p Period) Len() int {
	return p.Last - p.First + 1
}

// Members returns the member epochs of p within epochs.
func (p Period) Members(epochs []epoch.Epoch) []epoch.Epoch {
	return epochs[p.First : p.Last+1]
}

// Duration returns the wall-clock span from Start to End.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

type run struct {
	first, last int
}

// Segment returns the ordered, non-overlapping sleep periods of a sorted,
// classified sequence.
func Segment(epochs []epoch.Epoch) ([]Period, error) {
	var periods []Period
	lastEnd := -1

	for _, seed := range seedRuns(epochs) {
		if seed.first <= lastEnd {
			// already absorbed by the previous period
			continue
		}

		last, ok := extendForward(epochs, seed.last)
		if !ok {
			continue
		}
		first, ok := extendBackward(epochs, seed.first)
		if !ok {
			continue
		}

		p, err := newPeriod(epochs, first, last, lastEnd)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
		lastEnd = last
	}
	return periods, nil
}

// seedRuns finds maximal asleep runs of at least MinSeedEpochs epochs.
func seedRuns(epochs []epoch.Epoch) []run {
	var runs []run
	start := -1
	for i := 0; i <= len(epochs); i++ {
		if i < len(epochs) && epochs[i].Asleep {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= MinSeedEpochs {
			runs = append(runs, run{first: start, last: i - 1})
		}
		start = -1
	}
	return runs
}

// extendForward walks past from, folding awakenings shorter than WakeBoundary
// into the period. It returns the index of the last asleep member once
// WakeBoundary consecutive awake epochs are seen, or false if the data ends first.
func extendForward(epochs []epoch.Epoch, from int) (int, bool) {
	last := from
	awake := 0
	for i := from + 1; i < len(epochs); i++ {
		if !epochs[i].Asleep {
			awake++
			if awake == WakeBoundary {
				return last, true
			}
			continue
		}
		last = i
		awake = 0
	}
	return 0, false
}

// extendBackward mirrors extendForward towards the start of the sequence. The
// returned index can precede from, so a period may start earlier than its seed.
func extendBackward(epochs []epoch.Epoch, from int) (int, bool) {
	first := from
	awake := 0
	for i := from - 1; i >= 0; i-- {
		if !epochs[i].Asleep {
			awake++
			if awake == WakeBoundary {
				return first, true
			}
			continue
		}
		first = i
		awake = 0
	}
	return 0, false
}

func newPeriod(epochs []epoch.Epoch, first, last, prevLast int) (Period, error) {
	if first < 0 || last >= len(epochs) || first > last {
		return Period{}, fmt.Errorf("%w: index range [%d,%d] outside %d epochs", ErrInconsistent, first, last, len(epochs))
	}
	if first <= prevLast {
		return Period{}, fmt.Errorf("%w: period starting at %d overlaps previous period ending at %d", ErrInconsistent, first, prevLast)
	}
	if !epochs[first].Asleep || !epochs[last].Asleep {
		return Period{}, fmt.Errorf("%w: period [%d,%d] is not bounded by asleep epochs", ErrInconsistent, first, last)
	}

	start := epochs[first].Time
	for k := first; k <= last; k++ {
		want := start.Add(time.Duration(k-first) * time.Minute)
		if !epochs[k].Time.Equal(want) {
			return Period{}, fmt.Errorf("%w: member %d at %s, want %s", ErrInconsistent, k,
				epochs[k].Time.Format("2006-01-02 15:04"), want.Format("2006-01-02 15:04"))
		}
	}

	return Period{
		First: first,
		Last:  last,
		Start: start,
		End:   epochs[last].Time,
	}, nil
}
