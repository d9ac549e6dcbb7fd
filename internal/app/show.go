package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"actigraph-sleep/internal/pipeline"
	"actigraph-sleep/internal/storage"
	"actigraph-sleep/internal/workbook"
)

// Show prints per-day statistics, either freshly scored from one participant
// file or read back from the database. Stored lookups treat an empty
// participant or assessment point as matching every value.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	var rows []storage.DailyStatsRow
	if opts.Stored {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database not configured; cannot show stored stats")
		}
		defer closeStore()

		rows, err = listStored(ctx, store, opts)
		if err != nil {
			return err
		}
	} else {
		if opts.Path == "" {
			return errors.New("a participant file is required unless --stored is set")
		}
		res, err := a.scoreOne(opts.Path, opts.AssessmentPoint)
		if err != nil {
			return err
		}
		rows = storage.RowsFromResult(res)
	}

	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no daily stats found")
		return nil
	}
	return renderDailyStats(os.Stdout, rows)
}

func listStored(ctx context.Context, store storage.DailyStatsStore, opts ShowOptions) ([]storage.DailyStatsRow, error) {
	return store.ListDailyStats(ctx, opts.Participant, opts.AssessmentPoint)
}

func (a *App) scoreOne(path, assessment string) (*pipeline.Result, error) {
	if assessment == "" {
		assessment = a.Config.Input.AssessmentPoint
	}
	epochs, err := workbook.ReadEpochs(path, a.Logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.Logger).Process(pipeline.Input{
		Participant:     workbook.ParticipantName(path),
		AssessmentPoint: assessment,
		Epochs:          epochs,
	})
}

func renderDailyStats(w io.Writer, rows []storage.DailyStatsRow) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tDate\tOnset\tOffset\tNSP\tTST\tTWT\tEfficiency\t%Sleep\t8-8\tSed\tLight\tMVPA\tNaps")

	for _, row := range rows {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			row.Participant,
			row.StatDate.Format("2006-01-02"),
			formatClock(row.SleepOnset),
			formatClock(row.SleepOffset),
			formatMinutes(row.NightSleepPeriod),
			formatMinutes(row.TotalSleepTime),
			formatMinutes(row.TotalWakeTime),
			formatRatio(row.SleepEfficiency),
			formatDecimal(row.PercentDailySleep, 3),
			row.EightToEight,
			row.Sedentary,
			row.Light,
			row.MVPA,
			row.NapCount,
		)
	}

	return writer.Flush()
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("Jan 02 15:04")
}

func formatMinutes(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func formatRatio(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return formatDecimal(*d, 3)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
