package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"actigraph-sleep/internal/epoch"
	"actigraph-sleep/internal/workbook"
)

// maxChartPoints caps how many epochs are plotted; longer recordings are downsampled.
const maxChartPoints = 4000

// Chart renders one participant's activity counts and sleep state as a PNG.
func (a *App) Chart(ctx context.Context, opts ChartOptions) error {
	if opts.Path == "" {
		return errors.New("a participant file is required")
	}
	if opts.PNGPath == "" {
		opts.PNGPath = filepath.Join(a.Config.Output.Dir, workbook.ParticipantName(opts.Path)+".png")
	}
	if opts.From != nil && opts.To != nil && !opts.From.Before(*opts.To) {
		return errors.New("from must be before to")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := a.scoreOne(opts.Path, a.Config.Input.AssessmentPoint)
	if err != nil {
		return err
	}

	epochs := sliceWindow(res.Epochs, opts.From, opts.To)
	if len(epochs) == 0 {
		a.Logger.Info().Msg("no epochs found for chart window")
		return nil
	}

	a.Logger.Info().Int("epochs", len(epochs)).Str("png", opts.PNGPath).Msg("rendering actogram")
	return writeActogramPNG(opts.PNGPath, epochs, a.Config.Output.ChartWidth, a.Config.Output.ChartHeight)
}

func sliceWindow(epochs []epoch.Epoch, from, to *time.Time) []epoch.Epoch {
	if from == nil && to == nil {
		return epochs
	}
	out := make([]epoch.Epoch, 0, len(epochs))
	for _, e := range epochs {
		if from != nil && e.Time.Before(*from) {
			continue
		}
		if to != nil && e.Time.After(*to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func downsampleEpochs(epochs []epoch.Epoch, max int) []epoch.Epoch {
	if max <= 0 || len(epochs) <= max {
		return epochs
	}

	result := make([]epoch.Epoch, 0, max)
	step := float64(len(epochs)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(epochs) {
			idx = len(epochs) - 1
		}
		result = append(result, epochs[idx])
	}
	return result
}

func writeActogramPNG(path string, epochs []epoch.Epoch, width, height int) error {
	if len(epochs) < 2 {
		return errors.New("at least two epochs are needed to draw an actogram")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	epochs = downsampleEpochs(epochs, maxChartPoints)
	x := make([]time.Time, len(epochs))
	activity := make([]float64, len(epochs))
	asleep := make([]float64, len(epochs))

	peak := 1.0
	for i, e := range epochs {
		x[i] = e.Time
		activity[i] = float64(e.Activity)
		peak = math.Max(peak, activity[i])
		if e.Asleep {
			asleep[i] = 1
		}
	}

	countFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	participant := epochs[0].Participant
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s actogram", participant),
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Activity (counts/min)",
			Range:          &chart.ContinuousRange{Min: 0, Max: peak},
			ValueFormatter: countFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Asleep",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Activity",
				XValues: x,
				YValues: activity,
			},
			chart.TimeSeries{
				Name:    "Asleep",
				XValues: x,
				YValues: asleep,
				YAxis:   chart.YAxisSecondary,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue.WithAlpha(96),
					FillColor:   chart.ColorBlue.WithAlpha(48),
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
