// Package store persists run history, per-row results and the search cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/staff-finder/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for staff-finder runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputPath, outputPath string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, summary model.Summary, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)

	// Per-row results
	SaveResults(ctx context.Context, runID string, results []model.Result) error
	ListResults(ctx context.Context, runID string) ([]model.Result, error)

	// Search cache
	GetCachedSearch(ctx context.Context, key string) ([]model.SearchHit, bool, error)
	SetCachedSearch(ctx context.Context, key string, hits []model.SearchHit, ttl time.Duration) error
	DeleteExpiredSearches(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100
