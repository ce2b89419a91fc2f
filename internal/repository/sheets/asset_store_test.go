package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

// fakeValues emulates the subset of the Sheets values API the store relies on.
type fakeValues struct {
	mu         sync.Mutex
	sheets     map[string][][]interface{}
	failDelete error
}

func newFakeValues() *fakeValues {
	return &fakeValues{sheets: make(map[string][][]interface{})}
}

// parseRange understands "title!A2:O", "title!A5:O5", "title!A:O" and "title!1:1".
func parseRange(r string) (title string, start, end int) {
	title, cells, _ := strings.Cut(r, "!")
	from, to, _ := strings.Cut(cells, ":")
	start = rowOf(from, 1)
	end = rowOf(to, 0)
	return title, start, end
}

func rowOf(cell string, fallback int) int {
	digits := strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return fallback
	}
	n, _ := strconv.Atoi(digits)
	return n
}

func (f *fakeValues) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, _, _ := parseRange(sheetRange)
	f.sheets[title] = append(f.sheets[title], values)
	return nil
}

func (f *fakeValues) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, start, end := parseRange(sheetRange)
	rows := f.sheets[title]
	if start-1 >= len(rows) {
		return nil, nil
	}
	if end == 0 || end > len(rows) {
		end = len(rows)
	}
	out := make([][]interface{}, 0, end-start+1)
	for _, row := range rows[start-1 : end] {
		out = append(out, append([]interface{}(nil), row...))
	}
	return out, nil
}

func (f *fakeValues) UpdateRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, start, _ := parseRange(sheetRange)
	sheet := f.sheets[title]
	for len(sheet) < start-1+len(rows) {
		sheet = append(sheet, []interface{}{})
	}
	for i, row := range rows {
		sheet[start-1+i] = row
	}
	f.sheets[title] = sheet
	return nil
}

func (f *fakeValues) DeleteRow(_ context.Context, title string, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	sheet := f.sheets[title]
	if row < 1 || row > len(sheet) {
		return fmt.Errorf("row %d out of range", row)
	}
	f.sheets[title] = append(sheet[:row-1], sheet[row:]...)
	return nil
}

func (f *fakeValues) EnsureSheet(_ context.Context, title string, headers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sheets[title]) == 0 {
		f.sheets[title] = [][]interface{}{toRow(headers)}
	}
	return nil
}

func newTestStore(t *testing.T) (*AssetStore, *fakeValues) {
	t.Helper()
	values := newFakeValues()
	store := NewAssetStore(values, zap.NewNop())
	require.NoError(t, store.Init(context.Background()))
	return store, values
}

func asset(tag, name, branch string) models.Asset {
	return models.Asset{ID: "1", AssetTag: tag, Name: name, Branch: branch, Status: models.StatusAvailable}
}

func TestInitWritesHeaders(t *testing.T) {
	_, values := newTestStore(t)
	assert.Equal(t, toRow(models.AssetColumns), values.sheets["assets"][0])
	assert.Equal(t, toRow(models.HistoryColumns), values.sheets["asset_history"][0])
}

func TestInsertGetAndDuplicate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAsset(ctx, asset("0012500001", "PC-1", "SWC001")))
	err := store.InsertAsset(ctx, asset("0012500001", "PC-dup", "SWC001"))
	assert.ErrorIs(t, err, models.ErrDuplicateTag)

	got, err := store.GetAsset(ctx, "0012500001")
	require.NoError(t, err)
	assert.Equal(t, "PC-1", got.Name)

	_, err = store.GetAsset(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestUpdateRewritesMatchingRow(t *testing.T) {
	store, values := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertAsset(ctx, asset("A1", "first", "001")))
	require.NoError(t, store.InsertAsset(ctx, asset("A2", "second", "001")))

	updated := asset("A2", "second-renamed", "001")
	require.NoError(t, store.UpdateAsset(ctx, updated))

	assert.Equal(t, "second-renamed", values.sheets["assets"][2][2])
	assert.Equal(t, "first", values.sheets["assets"][1][2])

	assert.ErrorIs(t, store.UpdateAsset(ctx, asset("nope", "", "")), models.ErrAssetNotFound)
}

func TestDeleteRemovesRow(t *testing.T) {
	store, values := newTestStore(t)
	ctx := context.Background()
	for _, tag := range []string{"A1", "A2", "A3"} {
		require.NoError(t, store.InsertAsset(ctx, asset(tag, tag, "001")))
	}

	require.NoError(t, store.DeleteAsset(ctx, "A2"))
	assets, err := store.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "A1", assets[0].AssetTag)
	assert.Equal(t, "A3", assets[1].AssetTag)
	assert.Len(t, values.sheets["assets"], 3)

	require.NoError(t, store.DeleteAsset(ctx, "A1"))
	require.NoError(t, store.DeleteAsset(ctx, "A3"))
	assets, err = store.ListAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)

	assert.ErrorIs(t, store.DeleteAsset(ctx, "A3"), models.ErrAssetNotFound)
}

func TestDeleteFailureKeepsOtherRows(t *testing.T) {
	store, values := newTestStore(t)
	ctx := context.Background()
	for _, tag := range []string{"A1", "A2", "A3"} {
		require.NoError(t, store.InsertAsset(ctx, asset(tag, tag, "001")))
	}

	values.failDelete = errors.New("quota exceeded")
	assert.ErrorContains(t, store.DeleteAsset(ctx, "A2"), "quota exceeded")

	assets, err := store.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 3)
}

func TestTagsWithPrefix(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, tag := range []string{"0012500001", "0012500002", "0022500001"} {
		require.NoError(t, store.InsertAsset(ctx, asset(tag, "x", "")))
	}
	tags, err := store.TagsWithPrefix(ctx, "00125")
	require.NoError(t, err)
	assert.Equal(t, []string{"0012500001", "0012500002"}, tags)
}

func TestHistoryRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	entry := models.HistoryEntry{TS: "2025-03-14T09:00:00", User: "admin", Action: models.ActionAdd, AssetTag: "A1", Branch: "001", Note: "PC"}
	require.NoError(t, store.AppendHistory(ctx, entry))

	entries, err := store.ListHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.HistoryEntry{entry}, entries)
}
