package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

type stubAssets struct {
	assets []models.Asset
	err    error
}

func (s stubAssets) ListAssets(context.Context) ([]models.Asset, error) {
	return s.assets, s.err
}

type memSnapshots struct {
	saved []models.InventorySnapshot
	err   error
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, snapshot models.InventorySnapshot) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snapshot)
	return nil
}

func (m *memSnapshots) LatestSnapshots(_ context.Context, limit int64) ([]models.InventorySnapshot, error) {
	if int64(len(m.saved)) < limit {
		limit = int64(len(m.saved))
	}
	return m.saved[:limit], nil
}

type recordingNotifier struct {
	sent []models.InventorySnapshot
	err  error
}

func (r *recordingNotifier) SendSnapshot(_ context.Context, snapshot models.InventorySnapshot) error {
	r.sent = append(r.sent, snapshot)
	return r.err
}

func fixture() stubAssets {
	return stubAssets{assets: []models.Asset{
		{AssetTag: "0012500001", Branch: "001", Status: models.StatusInstalled},
		{AssetTag: "0012500002", Branch: "001", Status: models.StatusAvailable},
		{AssetTag: "0022500001", Branch: "002", Status: models.StatusRepair},
		{AssetTag: "X-1", Branch: "", Status: models.StatusInstalled},
	}}
}

func TestSummaryCountsByStatusAndBranch(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	svc := NewService(fixture(), nil, nil, bangkok, nil)
	svc.now = func() time.Time { return time.Date(2025, time.March, 14, 20, 0, 0, 0, time.UTC) }

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.Installed)
	assert.Equal(t, 1, got.Available)
	assert.Equal(t, 1, got.Repair)
	assert.Equal(t, map[string]int{"001": 2, "002": 1, "unassigned": 1}, got.ByBranch)
	// 20:00 UTC is already the next day in Bangkok.
	assert.Equal(t, 15, got.Date.Day())
}

func TestSummaryPropagatesStoreErrors(t *testing.T) {
	svc := NewService(stubAssets{err: errors.New("boom")}, nil, nil, time.UTC, nil)
	_, err := svc.Summary(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestRecordSnapshotSavesAndNotifies(t *testing.T) {
	snapshots := &memSnapshots{}
	notifier := &recordingNotifier{}
	svc := NewService(fixture(), snapshots, notifier, time.UTC, nil)

	got, err := svc.RecordSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots.saved, 1)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, got.Total, snapshots.saved[0].Total)
	assert.Equal(t, got.Total, notifier.sent[0].Total)
}

func TestRecordSnapshotWithoutSinks(t *testing.T) {
	svc := NewService(fixture(), nil, nil, time.UTC, nil)
	got, err := svc.RecordSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.Total)
}

func TestRecordSnapshotSaveFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(fixture(), &memSnapshots{err: errors.New("mongo down")}, notifier, time.UTC, nil)

	_, err := svc.RecordSnapshot(context.Background())
	assert.ErrorContains(t, err, "mongo down")
	assert.Empty(t, notifier.sent)
}

func TestRecordSnapshotIgnoresWebhookFailure(t *testing.T) {
	snapshots := &memSnapshots{}
	svc := NewService(fixture(), snapshots, &recordingNotifier{err: errors.New("timeout")}, time.UTC, nil)

	_, err := svc.RecordSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshots.saved, 1)
}

func TestHistoryWithoutMongo(t *testing.T) {
	svc := NewService(fixture(), nil, nil, time.UTC, nil)
	got, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
