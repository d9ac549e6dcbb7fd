package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/segment"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// nightFixture covers 21:00 on day to 07:59 the next morning. Asleep from
// 22:00 to 06:59 except for a ten minute awakening at 01:00.
func nightFixture() []epoch.Epoch {
	from := day.Add(21 * time.Hour)
	out := make([]epoch.Epoch, 660)
	for i := range out {
		e := epoch.Epoch{Participant: "101", Time: from.Add(time.Duration(i) * time.Minute), Level: epoch.Sedentary}
		if i >= 60 && i < 600 && (i < 240 || i >= 250) {
			e.Asleep = true
			e.Level = epoch.Asleep
		}
		out[i] = e
	}
	return out
}

func TestComputeNight(t *testing.T) {
	epochs := nightFixture()
	onset := &segment.Period{First: 60, Last: 239, Start: epochs[60].Time, End: epochs[239].Time}
	offset := &segment.Period{First: 250, Last: 599, Start: epochs[250].Time, End: epochs[599].Time}

	s := Compute(day, epochs, onset, offset)

	require.True(t, s.HasNight())
	assert.Equal(t, day.Add(22*time.Hour), *s.Onset)
	assert.Equal(t, day.Add(30*time.Hour+59*time.Minute), *s.Offset)
	assert.Equal(t, int64(540), *s.NightSleepPeriod)
	assert.Equal(t, int64(530), *s.TotalSleepTime)
	assert.Equal(t, int64(10), *s.TotalWakeTime)
	assert.InDelta(t, 530.0/540.0, *s.SleepEfficiency, 1e-9)
	assert.Equal(t, *s.NightSleepPeriod, *s.TotalSleepTime+*s.TotalWakeTime)

	assert.Equal(t, int64(530), s.EightToEight)
	assert.InDelta(t, 120.0/180.0, s.PercentDailySleep, 1e-9)
	assert.Equal(t, 60, s.Sedentary)
	assert.Zero(t, s.Light)
	assert.Zero(t, s.MVPA)
}

func TestComputeWithoutNight(t *testing.T) {
	epochs := nightFixture()
	onset := &segment.Period{First: 60, Last: 239, Start: epochs[60].Time, End: epochs[239].Time}

	tests := []struct {
		name   string
		onset  *segment.Period
		offset *segment.Period
	}{
		{name: "no onset"},
		{name: "onset only", onset: onset},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Compute(day, epochs, tc.onset, tc.offset)

			assert.False(t, s.HasNight())
			assert.Nil(t, s.Offset)
			assert.Nil(t, s.NightSleepPeriod)
			assert.Nil(t, s.TotalSleepTime)
			assert.Nil(t, s.TotalWakeTime)
			assert.Nil(t, s.SleepEfficiency)
			assert.Equal(t, int64(530), s.EightToEight)
			assert.Equal(t, tc.onset != nil, s.Onset != nil)
		})
	}
}

func TestComputeDateWithoutEpochs(t *testing.T) {
	s := Compute(day.AddDate(0, 0, 5), nightFixture(), nil, nil)

	assert.Zero(t, s.PercentDailySleep)
	assert.Zero(t, s.EightToEight)
	assert.Equal(t, NapSummary{}, s.Naps)
}

func levels(runs ...any) []epoch.Epoch {
	var out []epoch.Epoch
	for i := 0; i < len(runs); i += 2 {
		level := runs[i].(epoch.ActivityLevel)
		for n := 0; n < runs[i+1].(int); n++ {
			out = append(out, epoch.Epoch{
				Time:   day.Add(9*time.Hour + time.Duration(len(out))*time.Minute),
				Level:  level,
				Asleep: level == epoch.Napping,
			})
		}
	}
	return out
}

func TestNaps(t *testing.T) {
	tests := []struct {
		name   string
		epochs []epoch.Epoch
		want   NapSummary
	}{
		{
			name:   "no naps",
			epochs: levels(epoch.Light, 60),
		},
		{
			name:   "too short",
			epochs: levels(epoch.Light, 5, epoch.Napping, MinNapMinutes-1, epoch.Light, 5),
		},
		{
			name:   "two naps and a short one",
			epochs: levels(epoch.Napping, 30, epoch.Sedentary, 5, epoch.Napping, 45, epoch.Light, 10, epoch.Napping, 29, epoch.Light, 1),
			want:   NapSummary{Count: 2, Average: 37, Min: 30, Max: 45},
		},
		{
			name:   "nap running to the end of the day",
			epochs: levels(epoch.Light, 5, epoch.Napping, 40),
			want:   NapSummary{Count: 1, Average: 40, Min: 40, Max: 40},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Naps(tc.epochs))
		})
	}
}

func TestComputeCountsNapsOnDate(t *testing.T) {
	epochs := levels(epoch.Napping, 35, epoch.MVPA, 10, epoch.Light, 20)

	s := Compute(day, epochs, nil, nil)

	assert.Equal(t, 1, s.Naps.Count)
	assert.Equal(t, 35, s.Naps.Max)
	assert.Equal(t, 10, s.MVPA)
	assert.Equal(t, 20, s.Light)
	assert.InDelta(t, 35.0/65.0, s.PercentDailySleep, 1e-9)
}

// mixFixture is nightFixture's timeline with asleep decided per index.
func mixFixture(asleep func(i int) bool) []epoch.Epoch {
	out := nightFixture()
	for i := range out {
		out[i].Asleep = asleep(i)
		out[i].Level = epoch.Sedentary
		if out[i].Asleep {
			out[i].Level = epoch.Asleep
		}
	}
	return out
}

// bracket returns single-epoch periods at the first and last asleep epochs,
// or nil when nothing is asleep.
func bracket(epochs []epoch.Epoch) (*segment.Period, *segment.Period) {
	first, last := -1, -1
	for i, e := range epochs {
		if e.Asleep {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, nil
	}
	return &segment.Period{First: first, Last: first, Start: epochs[first].Time, End: epochs[first].Time},
		&segment.Period{First: last, Last: last, Start: epochs[last].Time, End: epochs[last].Time}
}

func TestComputeIsRepeatableAndBounded(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		asleep    func(i int) bool
		dropNight bool
	}{
		{name: "fixture night", date: day, asleep: func(i int) bool { return i >= 60 && i < 600 && (i < 240 || i >= 250) }},
		{name: "asleep throughout", date: day, asleep: func(int) bool { return true }},
		{name: "alternating", date: day, asleep: func(i int) bool { return i%2 == 0 }},
		{name: "one in three", date: day, asleep: func(i int) bool { return i%3 == 1 }},
		{name: "first half", date: day, asleep: func(i int) bool { return i < 330 }},
		{name: "awake throughout", date: day, asleep: func(int) bool { return false }},
		{name: "without night", date: day, asleep: func(i int) bool { return i%4 != 0 }, dropNight: true},
		{name: "date without epochs", date: day.AddDate(0, 0, 7), asleep: func(i int) bool { return i%2 == 1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			epochs := mixFixture(tc.asleep)
			onset, offset := bracket(epochs)
			if tc.dropNight {
				offset = nil
			}

			first := Compute(tc.date, epochs, onset, offset)
			second := Compute(tc.date, epochs, onset, offset)
			assert.Equal(t, first, second)

			assert.GreaterOrEqual(t, first.PercentDailySleep, 0.0)
			assert.LessOrEqual(t, first.PercentDailySleep, 1.0)
			if first.SleepEfficiency != nil {
				assert.GreaterOrEqual(t, *first.SleepEfficiency, 0.0)
				assert.LessOrEqual(t, *first.SleepEfficiency, 1.0)
				assert.Equal(t, *first.NightSleepPeriod, *first.TotalSleepTime+*first.TotalWakeTime)
			}
			assert.Equal(t, first.SleepEfficiency != nil, onset != nil && offset != nil)
		})
	}
}
