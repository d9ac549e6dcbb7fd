package cli

import (
	"github.com/spf13/cobra"

	"actigraph-sleep/internal/app"
)

var (
	scoreInput      string
	scoreOutput     string
	scoreEMA        string
	scoreAssessment string
	scoreWorkers    int
	scoreDB         bool
	scoreCharts     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every participant file in a directory and write the reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScoreOptions{
			InputDir:        scoreInput,
			OutputDir:       scoreOutput,
			EMAPath:         scoreEMA,
			AssessmentPoint: scoreAssessment,
			Workers:         scoreWorkers,
			WriteDB:         scoreDB,
			Charts:          scoreCharts,
		}
		return getApp().Score(cmd.Context(), opts)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "Directory of participant files (defaults to config)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "Directory for generated reports (defaults to config)")
	scoreCmd.Flags().StringVar(&scoreEMA, "ema", "", "EMA prompt workbook to correlate against")
	scoreCmd.Flags().StringVar(&scoreAssessment, "assessment", "", "Assessment point label, e.g. baseline")
	scoreCmd.Flags().IntVar(&scoreWorkers, "workers", 0, "Participants scored concurrently (defaults to config)")
	scoreCmd.Flags().BoolVar(&scoreDB, "db", false, "Upsert daily stats into PostgreSQL")
	scoreCmd.Flags().BoolVar(&scoreCharts, "charts", false, "Render an actogram PNG per participant")
}
