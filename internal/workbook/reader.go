// Package workbook reads actigraph and EMA spreadsheets and writes the scoring
// reports.
package workbook

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"actigraph-sleep/internal/ema"
	"actigraph-sleep/internal/epoch"
)

const (
	// ActicalSheet is the sheet holding minute-by-minute activity.
	ActicalSheet = "Data from ActiCal"

	acticalHeaderRow = 2
	acticalDataRow   = 15
	acticalTimeCol   = 0
	acticalMaxCols   = 26
)

// EMA header names.
const (
	EMAHeaderID     = "ID"
	EMAHeaderDate   = "DATE_IN"
	EMAHeaderTime   = "TIME_IN"
	EMAHeaderCSleep = "CSLEEP"
)

// ErrUnsupportedFormat is returned for input files with an unknown extension.
var ErrUnsupportedFormat = errors.New("workbook: unsupported input format")

// ParseError describes an input file that must be processed by hand.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("file %s cannot be parsed, it must be manually processed: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParticipantName derives the participant id from a file name.
func ParticipantName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// ReadEpochs loads raw epochs from an Actical workbook or a CSV export.
func ReadEpochs(path string, logger zerolog.Logger) ([]epoch.Epoch, error) {
	participant := ParticipantName(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadActical(path, participant, logger)
	case ".csv":
		return ReadCSV(path, participant)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

type dayColumn struct {
	index int
	day   string
	date  time.Time
}

// ReadActical parses the "Data from ActiCal" sheet. Each day of collection is
// a column titled with its weekday; each row is one minute of the day. Header
// columns without a usable date are skipped.
func ReadActical(path, participant string, logger zerolog.Logger) ([]epoch.Epoch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "open workbook", Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(ActicalSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "read sheet " + ActicalSheet, Err: err}
	}
	if len(rows) <= acticalDataRow {
		return nil, &ParseError{Path: path, Reason: "no activity rows"}
	}

	columns := acticalColumns(rows, logger.With().Str("file", path).Logger())
	if len(columns) == 0 {
		return nil, &ParseError{Path: path, Reason: "no dated weekday columns in header row"}
	}

	var epochs []epoch.Epoch
	for r := acticalDataRow; r < len(rows); r++ {
		row := rows[r]
		clock, ok := parseClock(cell(row, acticalTimeCol))
		if !ok {
			break
		}
		for _, col := range columns {
			raw := cell(row, col.index)
			if raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &ParseError{Path: path, Reason: fmt.Sprintf("activity at row %d column %d", r+1, col.index+1), Err: err}
			}
			epochs = append(epochs, epoch.Epoch{
				Participant: participant,
				Time:        col.date.Add(clock),
				Activity:    int(value),
			})
		}
	}
	return epochs, nil
}

func acticalColumns(rows [][]string, logger zerolog.Logger) []dayColumn {
	header := rows[acticalHeaderRow]
	dates := rows[acticalDataRow]

	var columns []dayColumn
	for i := 0; i < len(header) && i < acticalMaxCols; i++ {
		day := weekday(header[i])
		if day == "" {
			continue
		}
		if i-2 < 1 {
			logger.Debug().Int("column", i+1).Str("header", header[i]).Msg("skipping header column without a date column")
			continue
		}
		date, err := parseDate(cell(dates, i-2))
		if err != nil {
			logger.Debug().Err(err).Int("column", i+1).Str("header", header[i]).Msg("skipping header column with unreadable date")
			continue
		}
		columns = append(columns, dayColumn{index: i, day: day, date: date})
	}
	return columns
}

// weekday normalises a day-of-week header, or returns "" when it is not one.
func weekday(name string) string {
	n := strings.ToLower(name)
	for _, d := range []struct{ key, day string }{
		{"mon", "Monday"},
		{"tue", "Tuesday"},
		{"wed", "Wednesday"},
		{"thu", "Thursday"},
		{"fri", "Friday"},
		{"sat", "Saturday"},
		{"sun", "Sunday"},
	} {
		if strings.Contains(n, d.key) {
			return d.day
		}
	}
	return ""
}

// ReadEMA parses an EMA prompt workbook. CSLEEP is 1 for awake, 2 for asleep;
// anything else means the prompt went unanswered.
func ReadEMA(path string) ([]ema.Prompt, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "read sheet " + sheets[0], Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		switch h := strings.ToUpper(strings.TrimSpace(name)); h {
		case EMAHeaderID, EMAHeaderDate, EMAHeaderTime, EMAHeaderCSleep:
			cols[h] = i
		}
	}
	for _, h := range []string{EMAHeaderID, EMAHeaderDate, EMAHeaderTime} {
		if _, ok := cols[h]; !ok {
			return nil, &ParseError{Path: path, Reason: "missing header " + h}
		}
	}

	var prompts []ema.Prompt
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		id := participantID(cell(row, cols[EMAHeaderID]))
		date, dateErr := parseDate(cell(row, cols[EMAHeaderDate]))
		clock, clockOK := parseClock(cell(row, cols[EMAHeaderTime]))
		if id == "" || dateErr != nil || !clockOK {
			break
		}

		p := ema.Prompt{Participant: id, Time: date.Add(clock)}
		if idx, ok := cols[EMAHeaderCSleep]; ok {
			switch strings.TrimSpace(cell(row, idx)) {
			case "1":
				p.Responded = true
			case "2":
				p.Responded = true
				p.Asleep = true
			}
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func participantID(raw string) string {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return strconv.Itoa(int(v))
	}
	return raw
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDate reads a date cell stored either as an Excel serial or as text.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty date cell")
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return epoch.DateOf(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
	}
	for _, layout := range []string{"2006-01-02", "1/2/2006", "01-02-06", "2 Jan 2006", "02 Jan 2006"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// parseClock reads a time-of-day cell stored as a day fraction or HH:mm[:ss].
func parseClock(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	if frac, err := strconv.ParseFloat(raw, 64); err == nil {
		frac -= math.Floor(frac)
		secs := math.Round(frac * 24 * 60 * 60)
		// actigraph clocks record whole minutes
		return (time.Duration(secs) * time.Second).Round(time.Minute), true
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
		}
	}
	return 0, false
}
