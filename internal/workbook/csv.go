package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"actigraph-sleep/internal/epoch"
)

var csvTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"}

// ReadCSV loads a two-column timestamp,activity export. A leading header row is skipped.
func ReadCSV(path, participant string) ([]epoch.Epoch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "open csv", Err: err}
	}
	defer file.Close()

	epochs, err := decodeCSV(file, participant)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "decode csv", Err: err}
	}
	return epochs, nil
}

func decodeCSV(r io.Reader, participant string) ([]epoch.Epoch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var epochs []epoch.Epoch
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: want timestamp and activity, got %d fields", line, len(record))
		}

		ts, tsErr := parseTimestamp(record[0])
		activity, actErr := strconv.Atoi(strings.TrimSpace(record[1]))
		if line == 1 && (tsErr != nil || actErr != nil) {
			continue
		}
		if tsErr != nil {
			return nil, fmt.Errorf("line %d: %w", line, tsErr)
		}
		if actErr != nil {
			return nil, fmt.Errorf("line %d: activity: %w", line, actErr)
		}

		epochs = append(epochs, epoch.Epoch{Participant: participant, Time: ts, Activity: activity})
	}
	return epochs, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
