package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/spf13/cobra"
)

func newAggregateCmd(app *App, global *globalFlags) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Print daily attendance records, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.recordFilter()
			if err != nil {
				return err
			}

			records, err := loadRecords(cmd.Context(), app, filter)
			if err != nil {
				return err
			}
			attendance.SortMostRecentFirst(records)

			if global.format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			fmt.Fprint(cmd.OutOrStdout(), FormatRecords(records, app.Color))
			return nil
		},
	}

	addFilterFlags(cmd.Flags(), &filters)
	return cmd
}

// loadRecords reads every punch from the configured source and aggregates it.
func loadRecords(ctx context.Context, app *App, filter attendance.RecordFilter) ([]attendance.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := app.OpenSource(ctx, app.Config)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	punches, err := src.ListPunches(ctx, filter.PunchQuery())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrUpstream, err)
	}

	return attendance.FilterRecords(attendance.Aggregate(punches), filter), nil
}
