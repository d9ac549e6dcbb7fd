// Package sadeh scores actigraphy epochs as asleep or awake with the Sadeh
// algorithm and buckets them into activity levels.
package sadeh

import (
	"errors"
	"fmt"
	"math"
	"time"

	"actigraph-sleep/internal/epoch"
)

const (
	// Window is the number of epochs scored around the centre epoch.
	Window       = 11
	windowBefore = 5
	windowAfter  = 5

	natsLow  = 50
	natsHigh = 100
)

// ErrActivityRange marks an activity value outside every threshold bucket.
var ErrActivityRange = errors.New("sadeh: activity level out of range")

// State is the per-epoch sleep probability outcome.
type State int

const (
	Awake State = iota
	Asleep
)

func (s State) String() string {
	if s == Asleep {
		return "ASLEEP"
	}
	return "AWAKE"
}

// Components holds the intermediate terms of one Sadeh evaluation.
type Components struct {
	Window [Window]int
	AVG    float64
	NATS   int
	SD     float64
	LG     float64
	Score  float64
}

// State reports the classification implied by the score.
func (c Components) State() State {
	if c.Score >= 0 {
		return Asleep
	}
	return Awake
}

// Score evaluates the Sadeh formula for epochs[i]. Positions outside the
// sequence contribute an activity of zero.
func Score(epochs []epoch.Epoch, i int) Components {
	var c Components
	for k := -windowBefore; k <= windowAfter; k++ {
		idx := i + k
		if idx >= 0 && idx < len(epochs) {
			c.Window[windowBefore+k] = epochs[idx].Activity
		}
	}

	c.AVG = mean(c.Window[:])
	c.NATS = nats(c.Window[:])
	c.SD = populationSD(c.Window[:windowBefore+1])
	c.LG = math.Log1p(float64(epochs[i].Activity))
	c.Score = 7.601 - 0.065*c.AVG - 1.08*float64(c.NATS) - 0.056*c.SD - 0.703*c.LG
	return c
}

// Classify returns the sleep state of epochs[i].
func Classify(epochs []epoch.Epoch, i int) State {
	return Score(epochs, i).State()
}

// IsDaytime reports whether t falls between 09:00 and 17:59 local time.
func IsDaytime(t time.Time) bool {
	h := t.Hour()
	return h >= 9 && h <= 17
}

// RangeError identifies the participant and value that failed thresholding.
type RangeError struct {
	Participant string
	Time        time.Time
	Activity    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("activity level %d at %s is not within expected range for participant %s",
		e.Activity, e.Time.Format("2006-01-02 15:04"), e.Participant)
}

func (e *RangeError) Unwrap() error { return ErrActivityRange }

// Threshold maps a classified epoch to its activity level.
func Threshold(e epoch.Epoch) (epoch.ActivityLevel, error) {
	if e.Activity < 0 {
		return 0, &RangeError{Participant: e.Participant, Time: e.Time, Activity: e.Activity}
	}
	if e.Asleep {
		if e.Daytime {
			return epoch.Napping, nil
		}
		return epoch.Asleep, nil
	}

	switch {
	case e.Activity <= 40:
		return epoch.Sedentary, nil
	case e.Activity <= 2200:
		return epoch.Light, nil
	default:
		return epoch.MVPA, nil
	}
}

func mean(values []int) float64 {
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values))
}

func nats(values []int) int {
	count := 0
	for _, v := range values {
		if v >= natsLow && v < natsHigh {
			count++
		}
	}
	return count
}

func populationSD(values []int) float64 {
	avg := mean(values)
	var sum float64
	for _, v := range values {
		d := float64(v) - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
