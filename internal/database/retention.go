package database

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"
)

// retention cutoff columns per collection
var retentionTables = map[string]struct {
	table  string
	column string
}{
	CollectionScans:          {"scan_results", "created_at"},
	CollectionSyncQueue:      {"sync_queue", "created_at"},
	CollectionKnowledgeCache: {"knowledge_cache", "created_at"},
}

// Sweep deletes expired records from every collection with a non-zero
// maxAge. Collections without a policy entry (or with a zero maxAge) are
// never swept. Returns deletions per collection.
func (s *Store) Sweep(ctx context.Context) (map[string]int, error) {
	deleted := make(map[string]int)

	for collection, maxAge := range s.retention {
		if maxAge <= 0 {
			continue
		}
		target, ok := retentionTables[collection]
		if !ok {
			continue
		}

		cutoff := s.now().Add(-maxAge).UnixMilli()

		unlock := s.lock(collection)
		result, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s < ?`, target.table, target.column), cutoff)
		unlock()
		if err != nil {
			return deleted, storageErr("sweep "+collection, err)
		}

		affected, _ := result.RowsAffected()
		if affected > 0 {
			log.Printf("[RETENTION] Deleted %d expired records from %s", affected, collection)
		}
		deleted[collection] = int(affected)
	}

	return deleted, nil
}

// LastSweptAt returns the persisted last-sweep timestamp, zero when the
// store has never been swept
func (s *Store) LastSweptAt(ctx context.Context) (time.Time, error) {
	raw, err := s.GetSetting(ctx, settingLastSwept)
	if err != nil {
		return time.Time{}, err
	}
	if raw == "" {
		return time.Time{}, nil
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt last-swept marker: %w", err)
	}
	return time.UnixMilli(millis), nil
}

// SetLastSwept persists the last-sweep timestamp so restarts don't trigger
// an immediate re-sweep
func (s *Store) SetLastSwept(ctx context.Context, at time.Time) error {
	return s.PutSetting(ctx, settingLastSwept, strconv.FormatInt(at.UnixMilli(), 10))
}

// RetentionStats describes what a sweep would currently delete
type RetentionStats struct {
	Collection string        `json:"collection"`
	MaxAge     time.Duration `json:"max_age"`
	Expired    int           `json:"expired"`
	Total      int           `json:"total"`
}

// RetentionReport counts expired versus total records per swept collection
func (s *Store) RetentionReport(ctx context.Context) ([]RetentionStats, error) {
	var report []RetentionStats

	for collection, maxAge := range s.retention {
		if maxAge <= 0 {
			continue
		}
		target, ok := retentionTables[collection]
		if !ok {
			continue
		}

		cutoff := s.now().Add(-maxAge).UnixMilli()

		unlock := s.lock(collection)
		var expired, total int
		err := s.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s < ?`, target.table, target.column), cutoff).Scan(&expired)
		if err == nil {
			err = s.db.QueryRowContext(ctx,
				fmt.Sprintf(`SELECT COUNT(*) FROM %s`, target.table)).Scan(&total)
		}
		unlock()
		if err != nil {
			return nil, storageErr("retention report", err)
		}

		report = append(report, RetentionStats{
			Collection: collection,
			MaxAge:     maxAge,
			Expired:    expired,
			Total:      total,
		})
	}

	return report, nil
}
