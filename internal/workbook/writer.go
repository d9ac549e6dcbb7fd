package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/pipeline"
	"actigraph-sleep/internal/stats"
)

// Sheet names of the generated reports.
const (
	ParticipantSheet = "Participant Data"
	ThresholdSheet   = "Activity Threshold"
	EMASheet         = "EMA"
)

// ParticipantHeader lists the per-day summary columns.
var ParticipantHeader = []string{
	"ID", "Assessment", "Day", "Date", "Day_of_week",
	"Number_Naps", "Average_Nap_Duration", "Min_Nap_Duration", "Max_Nap_Duration",
	"Sleep_Onset_Time", "Sleep_Offset_Time", "Night_Sleep_Period", "TST", "TWT", "Sleep_Efficiency",
	"Percent_24hr_Sleep", "Sedentary_PA", "Light_PA", "MVPA", "Eight_to_Eight",
}

// EMAHeader lists the EMA correlation columns.
var EMAHeader = []string{
	"ID", "EMA prompt datetime", "EMA prompt asleep", "Actical Epoch #", "Actical epoch datetime", "Actical sleep",
}

// WriteParticipant writes the per-day summary of one or more participants.
func WriteParticipant(path string, results []*pipeline.Result) error {
	f, err := newReport(ParticipantSheet, ParticipantHeader)
	if err != nil {
		return err
	}
	defer f.Close()

	clockFmt := "hh:mm"
	clockStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &clockFmt})
	if err != nil {
		return fmt.Errorf("create clock style: %w", err)
	}

	row := 2
	for _, res := range results {
		for day, key := range res.Dates() {
			values := participantRow(res, day+1, res.Days[key])
			if err := setRow(f, ParticipantSheet, row, values); err != nil {
				return err
			}
			for _, col := range []int{10, 11} {
				if values[col-1] == nil {
					continue
				}
				name, _ := excelize.CoordinatesToCellName(col, row)
				if err := f.SetCellStyle(ParticipantSheet, name, name, clockStyle); err != nil {
					return fmt.Errorf("set clock style: %w", err)
				}
			}
			row++
		}
	}
	return save(f, path)
}

func participantRow(res *pipeline.Result, day int, d stats.DailyStats) []any {
	values := []any{
		res.Participant,
		res.AssessmentPoint,
		day,
		d.Date.Format("02 Jan 2006"),
		d.Date.Weekday().String(),
		d.Naps.Count,
		d.Naps.Average,
		d.Naps.Min,
		d.Naps.Max,
		timeOrNil(d.Onset),
		timeOrNil(d.Offset),
		nil, nil, nil, nil,
		d.PercentDailySleep,
		d.Sedentary,
		d.Light,
		d.MVPA,
		d.EightToEight,
	}
	if d.HasNight() {
		values[11] = derefInt(d.NightSleepPeriod)
		values[12] = derefInt(d.TotalSleepTime)
		values[13] = derefInt(d.TotalWakeTime)
		if d.SleepEfficiency != nil {
			values[14] = *d.SleepEfficiency
		}
	}
	return values
}

// WriteThresholds writes one participant's activity level grid: a row per
// minute of day and a column per date, each cell the level's ordinal.
func WriteThresholds(path string, res *pipeline.Result) error {
	f, err := newReport(ThresholdSheet, nil)
	if err != nil {
		return err
	}
	defer f.Close()

	dates := epoch.Dates(res.Epochs)
	dateCol := make(map[string]int, len(dates))
	header := make([]any, 0, len(dates)+1)
	header = append(header, "Time")
	for i, d := range dates {
		dateCol[epoch.DateKey(d)] = i + 2
		header = append(header, d.Format("1/2/06"))
	}
	if err := setRow(f, ThresholdSheet, 1, header); err != nil {
		return err
	}

	clockRow := map[string]int{}
	var clocks []string
	for _, e := range res.Epochs {
		hm := e.Time.Format("15:04")
		if _, ok := clockRow[hm]; !ok {
			clockRow[hm] = 0
			clocks = append(clocks, hm)
		}
	}
	sort.Strings(clocks)
	for i, hm := range clocks {
		clockRow[hm] = i + 2
		if err := setCell(f, ThresholdSheet, 1, i+2, hm); err != nil {
			return err
		}
	}

	for _, e := range res.Epochs {
		row := clockRow[e.Time.Format("15:04")]
		col, ok := dateCol[epoch.DateKey(e.Time)]
		if !ok {
			return fmt.Errorf("cannot find workbook column for date %s", epoch.DateKey(e.Time))
		}
		if err := setCell(f, ThresholdSheet, col, row, int(e.Level)); err != nil {
			return err
		}
	}
	return save(f, path)
}

// WriteEMA writes one row per epoch of every correlated EMA prompt.
func WriteEMA(path string, results []*pipeline.Result) error {
	f, err := newReport(EMASheet, EMAHeader)
	if err != nil {
		return err
	}
	defer f.Close()

	row := 2
	for _, res := range results {
		for _, r := range res.EMA {
			for n, e := range r.Epochs {
				values := []any{
					r.Prompt.Participant,
					r.Prompt.Time.Format("02 Jan 2006 15:04"),
					r.Prompt.Asleep,
					n,
					e.Time.Format("02 Jan 2006 15:04"),
					e.Asleep,
				}
				if err := setRow(f, EMASheet, row, values); err != nil {
					return err
				}
				row++
			}
		}
	}
	return save(f, path)
}

func newReport(sheet string, header []string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if len(header) == 0 {
		return f, nil
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := setCell(f, sheet, i+1, row, v); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, name, value); err != nil {
		return fmt.Errorf("set cell %s: %w", name, err)
	}
	return nil
}

func save(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func derefInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
