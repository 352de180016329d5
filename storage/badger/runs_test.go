package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/storage"
)

func sampleRun(created time.Time) *core.AnalysisRun {
	return &core.AnalysisRun{
		CreatedAt:  created,
		Questions:  []string{"How do users decide to upgrade?"},
		Hypotheses: []string{"Pricing drives churn"},
		ChunkCount: 12,
		Clusters: []core.ClusterSummary{
			{ID: 0, Size: 7, Relevance: 0.81},
			{ID: 1, Size: 5, Relevance: 0.44},
		},
		Warnings: []string{"1 chunks had no embedding and were excluded"},
	}
}

func TestSaveRunPopulatesIdentity(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	run := sampleRun(time.Time{})
	run.ID = 0

	saved, err := store.SaveRun(ctx, run)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestSaveRunKeepsExplicitIdentity(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	run := sampleRun(created)
	run.ID = 4242

	saved, err := store.SaveRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, core.ID(4242), saved.ID)
	assert.Equal(t, created, saved.CreatedAt)
}

func TestSaveRunNil(t *testing.T) {
	store := NewTestStore(t)

	_, err := store.SaveRun(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestGetRunRoundTrip(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveRun(ctx, sampleRun(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	got, err := store.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Questions, got.Questions)
	assert.Equal(t, saved.ChunkCount, got.ChunkCount)
	assert.Len(t, got.Clusters, 2)
	assert.Equal(t, saved.Warnings, got.Warnings)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

func TestGetRunNotFound(t *testing.T) {
	store := NewTestStore(t)

	_, err := store.GetRun(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListRunsOrderAndLimit(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []core.ID
	for i := 0; i < 5; i++ {
		run := sampleRun(base.Add(time.Duration(i) * time.Hour))
		run.ID = core.ID(100 + i)
		_, err := store.SaveRun(ctx, run)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 5)
	// Most recent first
	for i, run := range runs {
		assert.Equal(t, ids[4-i], run.ID)
	}

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[4], limited[0].ID)
	assert.Equal(t, ids[3], limited[1].ID)
}

func TestListRunsInvalidLimit(t *testing.T) {
	store := NewTestStore(t)

	_, err := store.ListRuns(context.Background(), 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestListRunsEmpty(t *testing.T) {
	store := NewTestStore(t)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRun(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveRun(ctx, sampleRun(time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, store.DeleteRun(ctx, saved.ID))

	_, err = store.GetRun(ctx, saved.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRunNotFound(t *testing.T) {
	store := NewTestStore(t)

	err := store.DeleteRun(context.Background(), 31337)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
