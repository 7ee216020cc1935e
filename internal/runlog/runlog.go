// Package runlog records outreach runs and their per-contact outcomes
// in a local database for later inspection.
package runlog

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one outreach batch execution.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	Workers    int        `json:"workers"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// OutcomeRecord is one contact's result within a run.
type OutcomeRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Email      string    `json:"email"`
	Website    string    `json:"website,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store defines the run log persistence interface.
type Store interface {
	CreateRun(ctx context.Context, workers int) (*Run, error)
	RecordOutcome(ctx context.Context, runID string, outcome model.Outcome) error
	FinishRun(ctx context.Context, runID string, status RunStatus, summary model.Summary) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	ListOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.RunLogConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("runlog: unknown driver %q", cfg.Driver)
	}
}
