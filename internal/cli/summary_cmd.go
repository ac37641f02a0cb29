package cli

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/spf13/cobra"
)

func newSummaryCmd(app *App, global *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-employee totals and averages",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.recordFilter()
			if err != nil {
				return err
			}

			records, err := loadRecords(cmd.Context(), app, filter)
			if err != nil {
				return err
			}
			summaries := attendance.Summarize(records)

			if global.format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), attendance.SummaryResponse{Month: filter.Month, Employees: summaries})
			}
			fmt.Fprint(cmd.OutOrStdout(), FormatSummary(summaries, app.Color))
			return nil
		},
	}

	addFilterFlags(cmd.Flags(), &filters)
	return cmd
}
