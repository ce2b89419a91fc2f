package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "assets.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAssetLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := models.Asset{ID: "1", AssetTag: "0012500001", Name: "PC-1", Branch: "SWC001", Status: models.StatusInstalled}
	require.NoError(t, store.InsertAsset(ctx, a))
	require.NoError(t, store.InsertAsset(ctx, models.Asset{ID: "2", AssetTag: "0012500002", Name: "Router"}))

	assert.ErrorIs(t, store.InsertAsset(ctx, a), models.ErrDuplicateTag)

	got, err := store.GetAsset(ctx, "0012500001")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	a.Name = "PC-1 renamed"
	a.Status = models.StatusRepair
	require.NoError(t, store.UpdateAsset(ctx, a))
	got, err = store.GetAsset(ctx, a.AssetTag)
	require.NoError(t, err)
	assert.Equal(t, "PC-1 renamed", got.Name)
	assert.Equal(t, models.StatusRepair, got.Status)

	all, err := store.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0012500001", all[0].AssetTag)

	require.NoError(t, store.DeleteAsset(ctx, "0012500001"))
	_, err = store.GetAsset(ctx, "0012500001")
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
	assert.ErrorIs(t, store.DeleteAsset(ctx, "0012500001"), models.ErrAssetNotFound)
	assert.ErrorIs(t, store.UpdateAsset(ctx, a), models.ErrAssetNotFound)
}

func TestTagsWithPrefixIsLiteral(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, tag := range []string{"0012500001", "0012500007", "0022500001", "001_5"} {
		require.NoError(t, store.InsertAsset(ctx, models.Asset{AssetTag: tag}))
	}

	tags, err := store.TagsWithPrefix(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, []string{"0012500001", "0012500007"}, tags)

	tags, err = store.TagsWithPrefix(ctx, "001_")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_5"}, tags)
}

func TestHistoryIsAppendOnlyAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []models.HistoryEntry{
		{TS: "2025-03-14T09:00:00", User: "admin", Action: models.ActionAdd, AssetTag: "A1", Branch: "001", Note: "PC"},
		{TS: "2025-03-14T09:05:00", User: "admin", Action: models.ActionDelete, AssetTag: "A1", Branch: "001"},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendHistory(ctx, e))
	}

	got, err := store.ListHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestReserveSequenceSeedsFromExistingTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, tag := range []string{"0012500001", "0012500002", "0012500005"} {
		require.NoError(t, store.InsertAsset(ctx, models.Asset{AssetTag: tag}))
	}

	seq, err := store.ReserveSequence(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, 6, seq)

	seq, err = store.ReserveSequence(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, 7, seq)

	seq, err = store.ReserveSequence(ctx, "00225")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestReserveSequenceCatchesUpWithManualTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seq, err := store.ReserveSequence(ctx, "00125")
	require.NoError(t, err)
	require.Equal(t, 1, seq)
	require.NoError(t, store.InsertAsset(ctx, models.Asset{AssetTag: "0012500001"}))

	require.NoError(t, store.InsertAsset(ctx, models.Asset{AssetTag: "0012500005"}))

	seq, err = store.ReserveSequence(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, 6, seq)

	// A reserved but never inserted sequence still counts.
	seq, err = store.ReserveSequence(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, 7, seq)
}

func TestReserveSequenceIsUniqueUnderConcurrency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 16
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := store.ReserveSequence(ctx, "00125")
			assert.NoError(t, err)
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d reserved twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[i])
	}
}
