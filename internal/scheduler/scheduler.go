package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

// SnapshotRecorder is the job the scheduler runs.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context) (models.InventorySnapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	recorder SnapshotRecorder
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a scheduler evaluating schedule in location.
func NewScheduler(schedule string, location *time.Location, recorder SnapshotRecorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}

	// Standard 5-field cron (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:     c,
		recorder: recorder,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the snapshot job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.recordSnapshot); err != nil {
		return fmt.Errorf("schedule inventory snapshot: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recordSnapshot() {
	s.logger.Info("recording inventory snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.recorder.RecordSnapshot(ctx); err != nil {
		s.logger.Error("failed to record inventory snapshot", zap.Error(err))
	}
}
