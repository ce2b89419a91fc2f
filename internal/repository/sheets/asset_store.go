package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

const (
	assetsSheet  = "assets"
	historySheet = "asset_history"

	assetsRange  = assetsSheet + "!A:O"
	historyRange = historySheet + "!A:F"
)

// AssetStore keeps assets and their history in two worksheets.
//
// Sheets has no transactions: read-modify-write sequences are serialized
// within this process only. Run a single writer per spreadsheet.
type AssetStore struct {
	repo   Repository
	logger *zap.Logger
	mu     sync.Mutex
}

// NewAssetStore wraps a values repository.
func NewAssetStore(repo Repository, logger *zap.Logger) *AssetStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetStore{repo: repo, logger: logger}
}

// Init makes sure both worksheets exist with the expected header rows.
func (s *AssetStore) Init(ctx context.Context) error {
	if err := s.repo.EnsureSheet(ctx, assetsSheet, models.AssetColumns); err != nil {
		return fmt.Errorf("ensure assets sheet: %w", err)
	}
	if err := s.repo.EnsureSheet(ctx, historySheet, models.HistoryColumns); err != nil {
		return fmt.Errorf("ensure history sheet: %w", err)
	}
	return nil
}

// ListAssets returns every asset in sheet order.
func (s *AssetStore) ListAssets(ctx context.Context) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return nil, err
	}
	return compact(assets), nil
}

// GetAsset finds an asset by exact tag.
func (s *AssetStore) GetAsset(ctx context.Context, tag string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return models.Asset{}, err
	}
	if i := indexOf(assets, tag); i >= 0 {
		return assets[i], nil
	}
	return models.Asset{}, fmt.Errorf("%w: %s", models.ErrAssetNotFound, tag)
}

// InsertAsset appends a row, refusing tags already present.
func (s *AssetStore) InsertAsset(ctx context.Context, asset models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return err
	}
	if indexOf(assets, asset.AssetTag) >= 0 {
		return fmt.Errorf("%w: %s", models.ErrDuplicateTag, asset.AssetTag)
	}
	return s.repo.WriteRow(ctx, assetsRange, toRow(asset.Values()))
}

// UpdateAsset rewrites the row holding asset.AssetTag.
func (s *AssetStore) UpdateAsset(ctx context.Context, asset models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return err
	}
	i := indexOf(assets, asset.AssetTag)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrAssetNotFound, asset.AssetTag)
	}
	row := i + 2
	sheetRange := fmt.Sprintf("%s!A%d:O%d", assetsSheet, row, row)
	return s.repo.UpdateRange(ctx, sheetRange, [][]interface{}{toRow(asset.Values())})
}

// DeleteAsset removes the asset's row; rows below it move up.
func (s *AssetStore) DeleteAsset(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return err
	}
	i := indexOf(assets, tag)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrAssetNotFound, tag)
	}
	if err := s.repo.DeleteRow(ctx, assetsSheet, i+2); err != nil {
		return err
	}
	s.logger.Debug("asset removed from sheet", zap.String("asset_tag", tag))
	return nil
}

// TagsWithPrefix lists issued tags starting with prefix.
func (s *AssetStore) TagsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, err := s.loadAssets(ctx)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, a := range compact(assets) {
		if strings.HasPrefix(a.AssetTag, prefix) {
			tags = append(tags, a.AssetTag)
		}
	}
	return tags, nil
}

// AppendHistory adds one row to the history worksheet.
func (s *AssetStore) AppendHistory(ctx context.Context, entry models.HistoryEntry) error {
	return s.repo.WriteRow(ctx, historyRange, toRow(entry.Values()))
}

// ListHistory returns the history log oldest first.
func (s *AssetStore) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.repo.ReadRange(ctx, historyRange)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range dataRows(rows) {
		entries = append(entries, models.HistoryFromValues(fromRow(row)))
	}
	return entries, nil
}

func (s *AssetStore) loadAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.repo.ReadRange(ctx, assetsRange)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	assets := make([]models.Asset, 0, len(rows))
	for _, row := range dataRows(rows) {
		assets = append(assets, models.AssetFromValues(fromRow(row)))
	}
	return assets, nil
}

// compact drops blank rows; loadAssets keeps them so indexes map to sheet rows.
func compact(assets []models.Asset) []models.Asset {
	out := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if a.AssetTag == "" && a.ID == "" && a.Name == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// dataRows drops the header row.
func dataRows(rows [][]interface{}) [][]interface{} {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

func indexOf(assets []models.Asset, tag string) int {
	for i, a := range assets {
		if a.AssetTag == tag {
			return i
		}
	}
	return -1
}
