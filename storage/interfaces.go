package storage

import (
	"context"

	"github.com/poiesic/thematic/core"
)

// RunRepository provides persistence for completed analysis runs.
// Implementations must be thread-safe and support concurrent access.
type RunRepository interface {
	// SaveRun persists a completed run. A zero ID is replaced with a
	// content-derived ID; a zero CreatedAt is set to the current time.
	// Returns the run with both fields populated.
	SaveRun(ctx context.Context, run *core.AnalysisRun) (*core.AnalysisRun, error)

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id core.ID) (*core.AnalysisRun, error)

	// ListRuns retrieves up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]*core.AnalysisRun, error)

	// DeleteRun removes a run and its indices.
	// Returns ErrNotFound if the run doesn't exist.
	DeleteRun(ctx context.Context, id core.ID) error

	// Close closes the storage backend and releases resources.
	Close() error
}
