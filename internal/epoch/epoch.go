package epoch

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrSequenceGap is returned when consecutive epochs are not exactly one minute apart.
var ErrSequenceGap = errors.New("epoch: sequence gap")

// ActivityLevel is the categorical activity bucket assigned to a classified epoch.
type ActivityLevel int

const (
	Asleep ActivityLevel = iota
	Napping
	Sedentary
	Light
	MVPA
)

func (l ActivityLevel) String() string {
	switch l {
	case Asleep:
		return "ASLEEP"
	case Napping:
		return "NAPPING"
	case Sedentary:
		return "SEDENTARY"
	case Light:
		return "LIGHT"
	case MVPA:
		return "MVPA"
	default:
		return fmt.Sprintf("ActivityLevel(%d)", int(l))
	}
}

// Epoch is one minute of recorded wrist activity for a participant.
type Epoch struct {
	Participant string
	Time        time.Time
	Activity    int

	Asleep  bool
	Daytime bool
	Level   ActivityLevel
}

// Date returns the calendar date of the epoch as midnight in the epoch's location.
func (e Epoch) Date() time.Time {
	return DateOf(e.Time)
}

// DateOf truncates t to midnight of its calendar day, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// At returns the instant at hour:min:sec on the calendar day of date.
func At(date time.Time, hour, min, sec int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, min, sec, 0, date.Location())
}

// DateKey formats a date as the map key used for per-day results.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// GapError reports the first pair of neighbouring epochs that break the one-minute cadence.
type GapError struct {
	Index    int
	Previous time.Time
	Current  time.Time
}

func (e *GapError) Error() string {
	return fmt.Sprintf("epoch %d: %s follows %s (%s apart, want 1m)",
		e.Index, e.Current.Format("2006-01-02 15:04"), e.Previous.Format("2006-01-02 15:04"), e.Current.Sub(e.Previous))
}

func (e *GapError) Unwrap() error { return ErrSequenceGap }

// Sort orders epochs by timestamp in place.
func Sort(epochs []Epoch) {
	sort.SliceStable(epochs, func(i, j int) bool {
		return epochs[i].Time.Before(epochs[j].Time)
	})
}

// Validate checks that a sorted sequence advances by exactly one minute per epoch.
func Validate(epochs []Epoch) error {
	for i := 1; i < len(epochs); i++ {
		prev, cur := epochs[i-1].Time, epochs[i].Time
		if cur.Sub(prev) != time.Minute {
			return &GapError{Index: i, Previous: prev, Current: cur}
		}
	}
	return nil
}

// GroupByDate splits a sorted sequence into per-date slices keyed by DateKey.
func GroupByDate(epochs []Epoch) map[string][]Epoch {
	days := make(map[string][]Epoch)
	start := 0
	for i := 1; i <= len(epochs); i++ {
		if i < len(epochs) && DateOf(epochs[i].Time).Equal(DateOf(epochs[start].Time)) {
			continue
		}
		if start < len(epochs) {
			key := DateKey(epochs[start].Time)
			days[key] = append(days[key], epochs[start:i]...)
		}
		start = i
	}
	return days
}

// Dates returns the distinct calendar dates of a sorted sequence in ascending order.
func Dates(epochs []Epoch) []time.Time {
	var dates []time.Time
	for _, e := range epochs {
		d := e.Date()
		if len(dates) == 0 || !dates[len(dates)-1].Equal(d) {
			dates = append(dates, d)
		}
	}
	return dates
}
