// Package store persists run history: one row per pipeline run with its
// summary. The dataset itself lives in the exported workbook; the store is
// the audit trail of what each run did.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fundbase/fundscan/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus
	Limit  int
}

// Store defines the run-history persistence interface.
type Store interface {
	// CreateRun inserts a new running run row and returns it.
	CreateRun(ctx context.Context) (*model.Run, error)

	// CompleteRun records the terminal status and summary of a run.
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error

	// GetRun fetches one run by ID.
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// ListRuns returns runs matching the filter, most recent first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	Close() error
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
