package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

type countingRecorder struct {
	calls atomic.Int32
	err   error
}

func (c *countingRecorder) RecordSnapshot(context.Context) (models.InventorySnapshot, error) {
	c.calls.Add(1)
	return models.InventorySnapshot{}, c.err
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler("not a cron", time.UTC, &countingRecorder{}, nil)
	assert.Error(t, s.Start())
}

func TestRecordSnapshotCallsRecorder(t *testing.T) {
	rec := &countingRecorder{err: errors.New("ignored")}
	s := NewScheduler("0 20 * * *", time.UTC, rec, nil)

	s.recordSnapshot()
	assert.Equal(t, int32(1), rec.calls.Load())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler("0 20 * * *", time.UTC, &countingRecorder{}, nil)
	require.NoError(t, s.Start())
	require.Len(t, s.cron.Entries(), 1)
	assert.Equal(t, time.UTC, s.cron.Location())
	s.Stop()
}
