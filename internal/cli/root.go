package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-service/internal/config"
	"github.com/cmlabs-hris/attendance-service/internal/repository"
	"github.com/spf13/cobra"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// App holds what every command needs.
type App struct {
	Config *config.Config
	// OpenSource opens the punch source described by the config
	OpenSource func(ctx context.Context, cfg *config.Config) (*repository.Source, error)
	// Color enables styled table output
	Color bool
}

type globalFlags struct {
	source string
	file   string
	sqlite string
	format string
}

// NewRootCmd creates the top-level "attendance" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "attendance",
		Short:         "Aggregate punch events into daily attendance records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.apply(app.Config)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.source, "source", "", "Punch source: file, sheet, postgres or sqlite (default from ATTENDANCE_SOURCE)")
	pf.StringVar(&flags.file, "file", "", "JSON punch file for --source file")
	pf.StringVar(&flags.sqlite, "sqlite", "", "SQLite database path")
	pf.StringVar(&flags.format, "format", FormatTable, "Output format: table or json")

	root.AddCommand(
		newAggregateCmd(app, flags),
		newSummaryCmd(app, flags),
		newImportCmd(app),
	)

	return root
}

func (g *globalFlags) apply(cfg *config.Config) error {
	if g.source != "" {
		cfg.Source.Type = g.source
	}
	if g.file != "" {
		cfg.Source.FilePath = g.file
	}
	if g.sqlite != "" {
		cfg.SQLite.Path = g.sqlite
	}
	if g.format != FormatTable && g.format != FormatJSON {
		return fmt.Errorf("unsupported --format %q: use table or json", g.format)
	}
	return nil
}
