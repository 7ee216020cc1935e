package runlog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, extracted so
// tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	workers     INTEGER NOT NULL DEFAULT 0,
	processed   INTEGER NOT NULL DEFAULT 0,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_outcomes (
	id          UUID PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES runs(id),
	email       TEXT NOT NULL,
	website     TEXT,
	status      TEXT NOT NULL,
	error       TEXT,
	elapsed_ms  BIGINT NOT NULL DEFAULT 0,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_run_id ON run_outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_email ON run_outcomes(email);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, workers int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, workers, started_at) VALUES ($1, $2, $3, $4)`,
		id, string(RunStatusRunning), workers, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &Run{ID: id, Status: RunStatusRunning, Workers: workers, StartedAt: now}, nil
}

func (s *PostgresStore) RecordOutcome(ctx context.Context, runID string, outcome model.Outcome) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_outcomes (id, run_id, email, website, status, error, elapsed_ms, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), runID, outcome.Email, outcome.Website,
		string(outcome.Status), outcome.Err, outcome.Elapsed.Milliseconds(), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert outcome for run %s", runID)
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status RunStatus, summary model.Summary) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, processed = $2, succeeded = $3, failed = $4, skipped = $5, finished_at = $6 WHERE id = $7`,
		string(status), summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped,
		time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, workers, processed, succeeded, failed, skipped, started_at, finished_at
		 FROM runs WHERE id = $1`, runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, status, workers, processed, succeeded, failed, skipped, started_at, finished_at
		FROM runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) ListOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, email, website, status, error, elapsed_ms, recorded_at
		 FROM run_outcomes WHERE run_id = $1 ORDER BY recorded_at`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list outcomes for run %s", runID)
	}
	defer rows.Close()

	var outcomes []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var website, errMsg *string
		if err := rows.Scan(&o.ID, &o.RunID, &o.Email, &website, &o.Status, &errMsg, &o.ElapsedMS, &o.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outcome")
		}
		if website != nil {
			o.Website = *website
		}
		if errMsg != nil {
			o.Error = *errMsg
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: iterate outcomes")
}
