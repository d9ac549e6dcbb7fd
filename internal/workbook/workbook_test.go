package workbook

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"actigraph-sleep/internal/ema"
	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/pipeline"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func setCells(t *testing.T, f *excelize.File, sheet string, cells map[string]any) {
	t.Helper()
	for name, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, name, v))
	}
}

// writeActical lays out two collection days the way the ActiCal export does:
// weekday titles on row 3, the date two columns left of each day's counts on
// the first data row, and clock times in column A.
func writeActical(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(ActicalSheet)
	require.NoError(t, err)
	setCells(t, f, ActicalSheet, map[string]any{
		"D3":  "Monday",
		"G3":  "Tue",
		"B16": "2024-03-04",
		"E16": "2024-03-05",
		"A16": "00:00",
		"A17": "00:01",
		"A18": "00:02",
		"D16": 0, "D17": 12, "D18": 340,
		"G16": 7, "G17": 8,
	})
	require.NoError(t, f.SaveAs(path))
}

func TestReadActical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "101.xlsx")
	writeActical(t, path)

	epochs, err := ReadEpochs(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, epochs, 5)

	epoch.Sort(epochs)
	assert.Equal(t, "101", epochs[0].Participant)
	assert.Equal(t, monday, epochs[0].Time)
	assert.Equal(t, 340, epochs[2].Activity)
	assert.Equal(t, monday.Add(2*time.Minute), epochs[2].Time)
	assert.Equal(t, monday.AddDate(0, 0, 1).Add(time.Minute), epochs[4].Time)
	assert.Equal(t, 8, epochs[4].Activity)
}

func TestReadActicalMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "102.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadEpochs(path, zerolog.Nop())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
}

func TestActicalColumnsSkipsUndatedHeaders(t *testing.T) {
	tests := []struct {
		name    string
		header  map[int]string
		dates   map[int]string
		want    []int
		skipped int
	}{
		{
			name:   "dated columns",
			header: map[int]string{3: "Monday", 6: "Tue"},
			dates:  map[int]string{1: "2024-03-04", 4: "2024-03-05"},
			want:   []int{3, 6},
		},
		{
			name:    "weekday title in column B",
			header:  map[int]string{1: "Monitor", 3: "Monday"},
			dates:   map[int]string{1: "2024-03-04"},
			want:    []int{3},
			skipped: 1,
		},
		{
			name:    "weekday title in column C",
			header:  map[int]string{2: "Sun", 6: "Tue"},
			dates:   map[int]string{4: "2024-03-05"},
			want:    []int{6},
			skipped: 1,
		},
		{
			name:    "empty and unreadable dates",
			header:  map[int]string{3: "Monday", 6: "Tue", 9: "Wed"},
			dates:   map[int]string{1: "2024-03-04", 7: "not a date"},
			want:    []int{3},
			skipped: 2,
		},
		{
			name:    "nothing usable",
			header:  map[int]string{0: "Monday"},
			skipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, acticalDataRow+1)
			rows[acticalHeaderRow] = make([]string, 12)
			rows[acticalDataRow] = make([]string, 12)
			for i, v := range tt.header {
				rows[acticalHeaderRow][i] = v
			}
			for i, v := range tt.dates {
				rows[acticalDataRow][i] = v
			}

			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

			columns := acticalColumns(rows, logger)
			var got []int
			for _, c := range columns {
				got = append(got, c.index)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.skipped, strings.Count(buf.String(), `"level":"debug"`))
		})
	}
}

func TestReadActicalSkipsUndatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "103.xlsx")
	writeActical(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	setCells(t, f, ActicalSheet, map[string]any{"B3": "Monitor", "J3": "Wed"})
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	epochs, err := ReadEpochs(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, epochs, 5)
}

func TestReadEMA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ema.xlsx")
	f := excelize.NewFile()
	setCells(t, f, "Sheet1", map[string]any{
		"A1": "ID", "B1": "DATE_IN", "C1": "TIME_IN", "D1": "CSLEEP",
		"A2": 101, "B2": "2024-03-04", "C2": "23:00", "D2": 2,
		"A3": 101, "B3": "2024-03-05", "C3": "12:30", "D3": 1,
		"A4": 102, "B4": "2024-03-05", "C4": "13:00", "D4": 3,
	})
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	prompts, err := ReadEMA(path)
	require.NoError(t, err)
	require.Len(t, prompts, 3)

	assert.Equal(t, ema.Prompt{Participant: "101", Time: monday.Add(23 * time.Hour), Responded: true, Asleep: true}, prompts[0])
	assert.True(t, prompts[1].Responded)
	assert.False(t, prompts[1].Asleep)
	assert.Equal(t, "102", prompts[2].Participant)
	assert.False(t, prompts[2].Responded)
}

func TestReadEMAMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ema.xlsx")
	f := excelize.NewFile()
	setCells(t, f, "Sheet1", map[string]any{"A1": "ID", "B1": "DATE_IN"})
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadEMA(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header TIME_IN")
}

// scored runs a short all-still recording through the pipeline so the
// writers see realistic classified epochs.
func scored(t *testing.T) *pipeline.Result {
	t.Helper()
	from := monday.Add(23*time.Hour + 50*time.Minute)
	epochs := make([]epoch.Epoch, 20)
	for i := range epochs {
		epochs[i] = epoch.Epoch{Participant: "101", Time: from.Add(time.Duration(i) * time.Minute)}
	}
	prompts := []ema.Prompt{{Participant: "101", Time: from.Add(15 * time.Minute), Responded: true, Asleep: true}}

	res, err := pipeline.New(zerolog.Nop()).Process(pipeline.Input{
		Participant:     "101",
		AssessmentPoint: "baseline",
		Epochs:          epochs,
		Prompts:         prompts,
	})
	require.NoError(t, err)
	return res
}

func TestWriteParticipant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "participants.xlsx")
	require.NoError(t, WriteParticipant(path, []*pipeline.Result{scored(t)}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ParticipantSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ParticipantHeader, rows[0])
	assert.Equal(t, []string{"101", "baseline", "1", "04 Mar 2024", "Monday"}, rows[1][:5])
	assert.Equal(t, "2", rows[2][2])
	assert.Equal(t, []string{ParticipantSheet}, f.GetSheetList())
}

func TestWriteThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "101_baseline.xlsx")
	require.NoError(t, WriteThresholds(path, scored(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(ThresholdSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Time", header)

	day, err := f.GetCellValue(ThresholdSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "3/4/24", day)

	first, err := f.GetCellValue(ThresholdSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "00:00", first)

	level, err := f.GetCellValue(ThresholdSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "0", level, "still epochs at midnight are asleep")
}

func TestWriteEMA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ema_baseline.xlsx")
	res := scored(t)
	require.Len(t, res.EMA, 1)
	require.NoError(t, WriteEMA(path, []*pipeline.Result{res}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EMASheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+ema.WindowEpochs)
	assert.Equal(t, EMAHeader, rows[0])
	assert.Equal(t, "0", rows[1][3])
	assert.Equal(t, "TRUE", rows[1][5])
}
