// Package backend builds the storage and export adapters selected by
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"casaconti/internal/sheets"
	gsheet "casaconti/internal/sheets/google"
	sheetsmem "casaconti/internal/sheets/memory"
	"casaconti/internal/storage"
	"casaconti/internal/storage/memory"
	"casaconti/internal/storage/sqlite"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore opens the configured store. The returned cleanup closes it.
func (f *Factory) CreateStore(config Config) (storage.Store, CleanupFunc, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemoryBackend:
		store := memory.New()
		f.logger.Warn("Initialized memory backend, data is lost on restart")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateStatementWriter returns the Google Sheets exporter when a
// spreadsheet is configured, otherwise an in-process writer.
func (f *Factory) CreateStatementWriter(ctx context.Context, config Config) (sheets.StatementWriter, error) {
	if config.SpreadsheetID == "" {
		f.logger.Info("No spreadsheet configured, statements are kept in memory")
		return sheetsmem.NewStore(), nil
	}

	exporter, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.SpreadsheetID,
		Prefix:          config.SheetPrefix,
		CredentialsJSON: config.CredentialsJSON,
		CredentialsFile: config.CredentialsFile,
		Household:       config.Household,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets exporter", "spreadsheet_id", config.SpreadsheetID)
	return exporter, nil
}
