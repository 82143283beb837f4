// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StateConfig{DBPath: filepath.Join(t.TempDir(), "enrich.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "enrich")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, types.RunRunning, run.Status)

	require.NoError(t, s.FinishRun(ctx, run, types.RunPartial, 4, 1, `{"errors":["x"]}`))
	assert.Equal(t, types.RunPartial, run.Status)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, types.RunPartial, runs[0].Status)
	assert.Equal(t, 4, runs[0].Added)
	assert.False(t, runs[0].Finished.IsZero())
}

func TestFinishRun_ExactlyOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "enrich")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, run, types.RunSuccess, 1, 0, ""))

	// Terminal rows are immutable.
	err = s.FinishRun(ctx, run, types.RunFailed, 0, 0, "late")
	assert.Error(t, err)

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.RunSuccess, runs[0].Status)
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	cp, err := s.LoadCheckpoint(ctx, "enrich")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, s.SaveCheckpoint(ctx, &types.Checkpoint{
		Pipeline: "enrich", LastSlug: "kennel-cough", Processed: 25, Added: 7,
	}))

	cp, err = s.LoadCheckpoint(ctx, "enrich")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "kennel-cough", cp.LastSlug)
	assert.Equal(t, 25, cp.Processed)

	// Overwritten at the next batch end.
	require.NoError(t, s.SaveCheckpoint(ctx, &types.Checkpoint{
		Pipeline: "enrich", LastSlug: "rabies", Processed: 50, Added: 9,
	}))
	cp, err = s.LoadCheckpoint(ctx, "enrich")
	require.NoError(t, err)
	assert.Equal(t, "rabies", cp.LastSlug)
	assert.Equal(t, 9, cp.Added)
}

func TestListRuns_OrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for n := 0; n < 3; n++ {
		run, err := s.StartRun(ctx, "enrich")
		require.NoError(t, err)
		require.NoError(t, s.FinishRun(ctx, run, types.RunSuccess, 0, 0, ""))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.True(t, !runs[0].Started.Before(runs[1].Started))
}
