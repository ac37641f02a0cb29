package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-service/internal/config"
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/oauth"
	"github.com/cmlabs-hris/attendance-service/internal/repository/file"
	"github.com/cmlabs-hris/attendance-service/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-service/internal/repository/sheets"
	"github.com/cmlabs-hris/attendance-service/internal/repository/sqlite"
)

// Source is the punch source selected by configuration.
type Source struct {
	attendance.PunchSource

	// Type is the configured source type
	Type string
	// DB is set for the PostgreSQL source, whose trigger feeds the change listener
	DB *database.DB

	closeFn func()
}

// Close releases the source's connections
func (s *Source) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// Open builds the punch source named by cfg.Source.Type.
func Open(ctx context.Context, cfg *config.Config) (*Source, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	loc := cfg.Location()

	switch cfg.Source.Type {
	case config.SourcePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db, cfg.Realtime.Channel); err != nil {
			db.Close()
			return nil, err
		}
		return &Source{
			PunchSource: postgresql.NewPunchRepository(db, loc),
			Type:        cfg.Source.Type,
			DB:          db,
			closeFn:     db.Close,
		}, nil

	case config.SourceSheet:
		sheetCfg := sheets.Config{
			BaseURL:       cfg.Sheet.BaseURL,
			SpreadsheetID: cfg.Sheet.SpreadsheetID,
			Range:         cfg.Sheet.Range,
			Location:      loc,
		}
		if cfg.Sheet.CredentialsFile != "" {
			client, err := oauth.NewServiceAccountClientFromFile(ctx, cfg.Sheet.CredentialsFile, oauth.SheetsReadonlyScope)
			if err != nil {
				return nil, err
			}
			sheetCfg.HTTPClient = client
		} else {
			sheetCfg.APIKey = cfg.Sheet.APIKey
		}
		return &Source{PunchSource: sheets.NewSource(sheetCfg), Type: cfg.Source.Type}, nil

	case config.SourceSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path, loc)
		if err != nil {
			return nil, err
		}
		return &Source{
			PunchSource: store,
			Type:        cfg.Source.Type,
			closeFn: func() {
				if err := store.Close(); err != nil {
					slog.Error("Failed to close sqlite store", "error", err)
				}
			},
		}, nil

	case config.SourceFile:
		return &Source{PunchSource: file.NewSource(cfg.Source.FilePath), Type: cfg.Source.Type}, nil
	}

	return nil, fmt.Errorf("unsupported ATTENDANCE_SOURCE: %q", cfg.Source.Type)
}
