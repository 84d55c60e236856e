package jobs

import (
	"context"
	"log"
	"time"

	"labelsense/internal/database"
	"labelsense/internal/services"
)

// RetentionSweepJob deletes expired records from the store on a fixed
// interval. The last successful sweep time is persisted so a restart
// shortly after a sweep does not trigger another full pass.
type RetentionSweepJob struct {
	store    *database.Store
	metrics  *services.Metrics
	interval time.Duration
}

// NewRetentionSweepJob creates the retention sweep job
func NewRetentionSweepJob(store *database.Store, metrics *services.Metrics, interval time.Duration) *RetentionSweepJob {
	return &RetentionSweepJob{
		store:    store,
		metrics:  metrics,
		interval: interval,
	}
}

// Name implements Job
func (j *RetentionSweepJob) Name() string { return "retention-sweep" }

// Interval implements Job
func (j *RetentionSweepJob) Interval() time.Duration { return j.interval }

// Run sweeps every collection with a retention policy, unless the previous
// sweep is still fresh
func (j *RetentionSweepJob) Run(ctx context.Context) error {
	lastSwept, err := j.store.LastSweptAt(ctx)
	if err != nil {
		return err
	}
	if !lastSwept.IsZero() && time.Since(lastSwept) < j.interval {
		log.Printf("[RETENTION] Skipping sweep, last ran %v ago", time.Since(lastSwept).Round(time.Second))
		return nil
	}

	deleted, err := j.store.Sweep(ctx)
	if err != nil {
		return err
	}

	total := 0
	for collection, count := range deleted {
		total += count
		if j.metrics != nil {
			j.metrics.SweepDeletions.WithLabelValues(collection).Add(float64(count))
		}
	}
	log.Printf("[RETENTION] Sweep complete, deleted %d records", total)

	return j.store.SetLastSwept(ctx, time.Now())
}
