package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"actigraph-sleep/internal/app"
)

var (
	chartFrom string
	chartTo   string
	chartPNG  string
)

// chartTimeLayouts are tried in order for --from and --to. Epoch clocks are
// wall-clock minutes, so values are read as UTC.
var chartTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

var chartCmd = &cobra.Command{
	Use:   "chart <participant-file>",
	Short: "Render a participant's activity and sleep state as a PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ChartOptions{
			Path:    args[0],
			PNGPath: chartPNG,
		}

		if chartFrom != "" {
			from, err := parseChartTime(chartFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if chartTo != "" {
			to, err := parseChartTime(chartTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Chart(cmd.Context(), opts)
	},
}

func parseChartTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range chartTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func init() {
	chartCmd.Flags().StringVar(&chartFrom, "from", "", "Window start (inclusive)")
	chartCmd.Flags().StringVar(&chartTo, "to", "", "Window end (inclusive)")
	chartCmd.Flags().StringVar(&chartPNG, "png", "", "Path to write the PNG (defaults to <output.dir>/<participant>.png)")
}
