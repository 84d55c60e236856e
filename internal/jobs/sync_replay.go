package jobs

import (
	"context"
	"time"

	"labelsense/internal/services"
)

// SyncReplayJob periodically drains the sync queue. Replay also fires on
// every offline-to-online transition; the periodic pass catches items whose
// earlier delivery failed transiently.
type SyncReplayJob struct {
	sync     *services.SyncService
	interval time.Duration
}

// NewSyncReplayJob creates the sync replay job
func NewSyncReplayJob(syncService *services.SyncService, interval time.Duration) *SyncReplayJob {
	return &SyncReplayJob{
		sync:     syncService,
		interval: interval,
	}
}

// Name implements Job
func (j *SyncReplayJob) Name() string { return "sync-replay" }

// Interval implements Job
func (j *SyncReplayJob) Interval() time.Duration { return j.interval }

// Run replays pending items; a no-op while offline or with an empty queue
func (j *SyncReplayJob) Run(ctx context.Context) error {
	_, err := j.sync.Replay(ctx)
	return err
}
