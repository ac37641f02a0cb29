package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-service/internal/config"
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/repository/sqlite"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy punches from the source into the SQLite store",
		Long: "Copy punches from --source (default sheet) into the SQLite store at --sqlite.\n" +
			"Punches already stored for the same employee and instant are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if !cmd.Flags().Changed("source") {
				app.Config.Source.Type = config.SourceSheet
			}
			if app.Config.Source.Type == config.SourceSQLite {
				return fmt.Errorf("import needs a source other than sqlite")
			}

			src, err := app.OpenSource(ctx, app.Config)
			if err != nil {
				return fmt.Errorf("opening source: %w", err)
			}
			defer src.Close()

			punches, err := src.ListPunches(ctx, attendance.PunchQuery{})
			if err != nil {
				return fmt.Errorf("%w: %w", attendance.ErrUpstream, err)
			}

			store, err := sqlite.Open(app.Config.SQLite.Path, app.Config.Location())
			if err != nil {
				return err
			}
			defer store.Close()

			inserted, err := store.Import(ctx, punches)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d punches into %s\n", inserted, len(punches), app.Config.SQLite.Path)
			return nil
		},
	}

	return cmd
}
