package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundbase/fundscan/internal/model"
)

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testSQLite(t)

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Nil(t, got.Summary)

	summary := &model.RunSummary{
		RunID:     run.ID,
		Universe:  3,
		Succeeded: 2,
		Failures: []model.FundFailure{
			{Fund: "missing-fund", Reason: model.FailFetchNotFound},
		},
		OutputPath: "funds.xlsx",
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusCompleted, summary))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 3, got.Summary.Universe)
	assert.Equal(t, 2, got.Summary.Succeeded)
	require.Len(t, got.Summary.Failures, 1)
	assert.Equal(t, model.FailFetchNotFound, got.Summary.Failures[0].Reason)
	assert.Equal(t, "funds.xlsx", got.Summary.OutputPath)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := testSQLite(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLiteCompleteRunNotFound(t *testing.T) {
	s := testSQLite(t)
	err := s.CompleteRun(context.Background(), "no-such-run", model.RunStatusCompleted, &model.RunSummary{})
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	ctx := context.Background()
	s := testSQLite(t)

	first, err := s.CreateRun(ctx)
	require.NoError(t, err)
	second, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, second.ID, model.RunStatusFailed, &model.RunSummary{}))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, second.ID, failed[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	running, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, first.ID, running[0].ID)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), "", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, s)
}
