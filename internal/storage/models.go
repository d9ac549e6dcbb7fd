package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"actigraph-sleep/internal/pipeline"
	"actigraph-sleep/internal/stats"
)

// DailyStatsRow is one participant-day as stored in the daily_stats table.
type DailyStatsRow struct {
	Participant       string
	AssessmentPoint   string
	StatDate          time.Time
	SleepOnset        *time.Time
	SleepOffset       *time.Time
	NightSleepPeriod  *int64
	TotalSleepTime    *int64
	TotalWakeTime     *int64
	SleepEfficiency   *decimal.Decimal
	PercentDailySleep decimal.Decimal
	EightToEight      int64
	Sedentary         int
	Light             int
	MVPA              int
	NapCount          int
	NapAverage        int
	NapMin            int
	NapMax            int
	CreatedAt         time.Time
}

// ratioPlaces is the precision kept for efficiency and percent-of-day ratios.
const ratioPlaces = 4

// RowsFromResult flattens a scored participant into storable rows ordered by date.
func RowsFromResult(res *pipeline.Result) []DailyStatsRow {
	rows := make([]DailyStatsRow, 0, len(res.Days))
	for _, key := range res.Dates() {
		rows = append(rows, rowFromStats(res.Participant, res.AssessmentPoint, res.Days[key]))
	}
	return rows
}

func rowFromStats(participant, assessment string, d stats.DailyStats) DailyStatsRow {
	row := DailyStatsRow{
		Participant:       participant,
		AssessmentPoint:   assessment,
		StatDate:          d.Date,
		SleepOnset:        d.Onset,
		SleepOffset:       d.Offset,
		NightSleepPeriod:  d.NightSleepPeriod,
		TotalSleepTime:    d.TotalSleepTime,
		TotalWakeTime:     d.TotalWakeTime,
		PercentDailySleep: decimal.NewFromFloat(d.PercentDailySleep).Round(ratioPlaces),
		EightToEight:      d.EightToEight,
		Sedentary:         d.Sedentary,
		Light:             d.Light,
		MVPA:              d.MVPA,
		NapCount:          d.Naps.Count,
		NapAverage:        d.Naps.Average,
		NapMin:            d.Naps.Min,
		NapMax:            d.Naps.Max,
	}
	if d.SleepEfficiency != nil {
		eff := decimal.NewFromFloat(*d.SleepEfficiency).Round(ratioPlaces)
		row.SleepEfficiency = &eff
	}
	return row
}
