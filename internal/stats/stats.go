// Package stats derives per-day sleep and activity statistics.
package stats

import (
	"time"

	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/segment"
)

// MinNapMinutes is the shortest run of napping epochs counted as a nap.
const MinNapMinutes = 30

// DailyStats summarises one participant-day. Fields that depend on both the
// onset and the offset are nil when either is missing.
type DailyStats struct {
	Date   time.Time
	Onset  *time.Time
	Offset *time.Time

	NightSleepPeriod *int64
	TotalSleepTime   *int64
	TotalWakeTime    *int64
	SleepEfficiency  *float64

	PercentDailySleep float64
	EightToEight      int64
	Sedentary         int
	Light             int
	MVPA              int

	Naps NapSummary
}

// HasNight reports whether both onset and offset were resolved.
func (d DailyStats) HasNight() bool {
	return d.Onset != nil && d.Offset != nil
}

// NapSummary describes the naps taken on one date, in minutes.
type NapSummary struct {
	Count   int
	Average int
	Min     int
	Max     int
}

// Compute builds the statistics for date. epochs is the participant's full
// classified sequence; onset and offset may be nil.
func Compute(date time.Time, epochs []epoch.Epoch, onset, offset *segment.Period) DailyStats {
	date = epoch.DateOf(date)
	stats := DailyStats{Date: date}

	if onset != nil {
		t := onset.Start
		stats.Onset = &t
	}
	if offset != nil {
		t := offset.End
		stats.Offset = &t
	}

	if stats.HasNight() {
		nsp := absInt64(int64(stats.Offset.Sub(*stats.Onset)/time.Minute) + 1)
		tst := countAsleep(epochs, *stats.Onset, *stats.Offset)
		twt := absInt64(nsp - tst)
		stats.NightSleepPeriod = &nsp
		stats.TotalSleepTime = &tst
		stats.TotalWakeTime = &twt
		if nsp > 0 {
			eff := float64(tst) / float64(nsp)
			stats.SleepEfficiency = &eff
		}
	}

	stats.EightToEight = countAsleep(epochs, epoch.At(date, 20, 0, 0), epoch.At(date.AddDate(0, 0, 1), 8, 0, 0))

	var day []epoch.Epoch
	asleep := 0
	for _, e := range epochs {
		if !e.Date().Equal(date) {
			continue
		}
		day = append(day, e)
		if e.Asleep {
			asleep++
		}
		switch e.Level {
		case epoch.Sedentary:
			stats.Sedentary++
		case epoch.Light:
			stats.Light++
		case epoch.MVPA:
			stats.MVPA++
		}
	}
	if len(day) > 0 {
		stats.PercentDailySleep = float64(asleep) / float64(len(day))
	}
	stats.Naps = Naps(day)

	return stats
}

// Naps summarises runs of napping epochs of at least MinNapMinutes.
func Naps(epochs []epoch.Epoch) NapSummary {
	var naps []int
	run := 0
	for i, e := range epochs {
		if e.Level == epoch.Napping {
			run++
		}
		if e.Level != epoch.Napping || i == len(epochs)-1 {
			if run >= MinNapMinutes {
				naps = append(naps, run)
			}
			run = 0
		}
	}

	var summary NapSummary
	if len(naps) == 0 {
		return summary
	}

	total := 0
	summary.Min = naps[0]
	for _, n := range naps {
		total += n
		if n < summary.Min {
			summary.Min = n
		}
		if n > summary.Max {
			summary.Max = n
		}
	}
	summary.Count = len(naps)
	summary.Average = total / len(naps)
	return summary
}

func countAsleep(epochs []epoch.Epoch, from, to time.Time) int64 {
	var n int64
	for _, e := range epochs {
		if e.Asleep && !e.Time.Before(from) && !e.Time.After(to) {
			n++
		}
	}
	return n
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
