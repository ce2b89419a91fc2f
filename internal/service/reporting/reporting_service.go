package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/repository/mongodb"
	"github.com/mamadbah2/assettracker/pkg/clients/notify"
)

// AssetLister is the slice of the asset store the dashboard needs.
type AssetLister interface {
	ListAssets(ctx context.Context) ([]models.Asset, error)
}

// Service computes dashboard counters and records daily inventory snapshots.
type Service struct {
	assets    AssetLister
	snapshots mongodb.Repository
	notifier  notify.Client
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a reporting service. snapshots and notifier are optional.
func NewService(assets AssetLister, snapshots mongodb.Repository, notifier notify.Client, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &Service{
		assets:    assets,
		snapshots: snapshots,
		notifier:  notifier,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Summary counts assets by status and by branch.
func (s *Service) Summary(ctx context.Context) (models.InventorySnapshot, error) {
	assets, err := s.assets.ListAssets(ctx)
	if err != nil {
		return models.InventorySnapshot{}, fmt.Errorf("load assets: %w", err)
	}

	now := s.now().In(s.location)
	snapshot := models.InventorySnapshot{
		Date:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location),
		ByBranch:  make(map[string]int),
		CreatedAt: now,
	}

	for _, a := range assets {
		snapshot.Total++
		switch a.Status {
		case models.StatusInstalled:
			snapshot.Installed++
		case models.StatusRepair:
			snapshot.Repair++
		default:
			snapshot.Available++
		}

		branch := strings.TrimSpace(a.Branch)
		if branch == "" {
			branch = "unassigned"
		}
		snapshot.ByBranch[branch]++
	}

	return snapshot, nil
}

// RecordSnapshot stores today's summary and forwards it to the webhook.
// Either sink may be absent; a webhook failure does not undo the stored snapshot.
func (s *Service) RecordSnapshot(ctx context.Context) (models.InventorySnapshot, error) {
	snapshot, err := s.Summary(ctx)
	if err != nil {
		return models.InventorySnapshot{}, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			return models.InventorySnapshot{}, fmt.Errorf("save snapshot: %w", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to deliver snapshot webhook", zap.Error(err))
		}
	}

	s.logger.Info("inventory snapshot recorded",
		zap.Int("total", snapshot.Total),
		zap.Int("installed", snapshot.Installed),
		zap.Int("available", snapshot.Available),
		zap.Int("repair", snapshot.Repair))
	return snapshot, nil
}

// History returns the most recent stored snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int64) ([]models.InventorySnapshot, error) {
	if s.snapshots == nil {
		return []models.InventorySnapshot{}, nil
	}
	if limit <= 0 {
		limit = 30
	}
	return s.snapshots.LatestSnapshots(ctx, limit)
}
