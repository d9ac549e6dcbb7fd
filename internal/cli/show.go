package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"actigraph-sleep/internal/app"
)

var (
	showParticipant string
	showAssessment  string
	showStored      bool
)

var showCmd = &cobra.Command{
	Use:   "show [participant-file]",
	Short: "Print daily sleep statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Participant:     showParticipant,
			AssessmentPoint: showAssessment,
			Stored:          showStored,
		}
		if len(args) == 1 {
			opts.Path = args[0]
		}
		if opts.Path == "" && !opts.Stored {
			return errors.New("pass a participant file or --stored")
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showStored, "stored", false, "Read stats back from PostgreSQL instead of scoring a file")
	showCmd.Flags().StringVar(&showParticipant, "participant", "", "Filter stored stats by participant")
	showCmd.Flags().StringVar(&showAssessment, "assessment", "", "Assessment point label (defaults to config)")
}
