package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "runlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLite_RunLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, 3, run.Workers)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Nil(t, got.FinishedAt)

	summary := model.Summary{Processed: 5, Succeeded: 4, Failed: 1}
	require.NoError(t, store.FinishRun(ctx, run.ID, RunStatusComplete, summary))

	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)
	assert.Equal(t, 5, got.Processed)
	assert.Equal(t, 4, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	require.NotNil(t, got.FinishedAt)
}

func TestSQLite_RecordAndListOutcomes(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, store.RecordOutcome(ctx, run.ID, model.Outcome{
		Email:   "a@a.com",
		Website: "https://a.com",
		Status:  model.OutcomeSucceeded,
		Elapsed: 1500 * time.Millisecond,
	}))
	require.NoError(t, store.RecordOutcome(ctx, run.ID, model.Outcome{
		Email:  "b@b.com",
		Status: model.OutcomeFailed,
		Err:    "fetch: Page not found (404): https://b.com",
	}))

	outcomes, err := store.ListOutcomes(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "a@a.com", outcomes[0].Email)
	assert.Equal(t, int64(1500), outcomes[0].ElapsedMS)
	assert.Empty(t, outcomes[0].Error)
	assert.Contains(t, outcomes[1].Error, "404")
}

func TestSQLite_ListRuns(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	ctx := context.Background()

	first, err := store.CreateRun(ctx, 1)
	require.NoError(t, err)
	_, err = store.CreateRun(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, first.ID, RunStatusComplete, model.Summary{}))

	all, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := store.ListRuns(ctx, RunFilter{Status: RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, first.ID, complete[0].ID)

	limited, err := store.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	_, err := store.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
}

func TestSQLite_FinishRunNotFound(t *testing.T) {
	t.Parallel()

	store := newTestSQLite(t)
	err := store.FinishRun(context.Background(), "no-such-run", RunStatusComplete, model.Summary{})
	require.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.RunLogConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestOpen_SQLiteDefault(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), config.RunLogConfig{
		Path: filepath.Join(t.TempDir(), "x.db"),
	})
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(context.Background()))
}
