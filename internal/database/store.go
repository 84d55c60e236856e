package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"labelsense/internal/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrStorage marks retryable storage-layer failures, distinct from
// business-logic or validation errors
var ErrStorage = errors.New("storage failure")

// RetentionPolicy maps a collection to its maximum record age.
// A zero duration means records of that collection never expire.
type RetentionPolicy map[string]time.Duration

// settings keys used by the store itself
const settingLastSwept = "retention:last_swept"

// Store provides collection-scoped access to the persistent state.
// Retention sweeps and ordinary reads/writes against the same collection
// are serialized through a per-collection mutex so a sweep can never
// delete a record mid-write.
type Store struct {
	db        *DB
	retention RetentionPolicy
	retryCap  int
	locks     map[string]*sync.Mutex
	now       func() time.Time
}

// NewStore creates a store with the given retention policy and sync retry cap
func NewStore(db *DB, retention RetentionPolicy, retryCap int) *Store {
	locks := make(map[string]*sync.Mutex)
	for _, collection := range []string{CollectionScans, CollectionSyncQueue, CollectionKnowledgeCache, CollectionSettings} {
		locks[collection] = &sync.Mutex{}
	}
	return &Store{
		db:        db,
		retention: retention,
		retryCap:  retryCap,
		locks:     locks,
		now:       time.Now,
	}
}

func (s *Store) lock(collection string) func() {
	mu := s.locks[collection]
	mu.Lock()
	return mu.Unlock
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

// ---- scan results ----

// PutScan persists one scan result. The record is validated first so
// malformed payloads are rejected before they reach the store.
func (s *Store) PutScan(ctx context.Context, record *models.ScanRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	payload, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to encode scan payload: %w", err)
	}

	defer s.lock(CollectionScans)()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scan_results (id, category, raw_text, payload, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, string(record.Category), record.RawText, payload, record.Synced, record.CreatedAt.UnixMilli())
	if err != nil {
		return storageErr("put scan", err)
	}
	return nil
}

// GetScan loads one scan result by id
func (s *Store) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	defer s.lock(CollectionScans)()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, raw_text, payload, synced, created_at
		FROM scan_results WHERE id = ?
	`, id)

	record, err := scanRecordFromRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get scan", err)
	}
	return record, nil
}

// QueryScans pages through scan results newest-first. Category narrows the
// result set when non-empty. Only forward cursor pagination over the time
// index is supported.
func (s *Store) QueryScans(ctx context.Context, category models.Category, limit, offset int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	defer s.lock(CollectionScans)()

	query := `
		SELECT id, category, raw_text, payload, synced, created_at
		FROM scan_results
	`
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, string(category))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query scans", err)
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		record, err := scanRecordFromRow(rows.Scan)
		if err != nil {
			return nil, storageErr("scan row", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query scans", err)
	}
	return records, nil
}

// DeleteScan removes one scan result
func (s *Store) DeleteScan(ctx context.Context, id string) error {
	defer s.lock(CollectionScans)()

	result, err := s.db.ExecContext(ctx, `DELETE FROM scan_results WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete scan", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkScanSynced flips the synced flag after a successful replay
func (s *Store) MarkScanSynced(ctx context.Context, id string) error {
	defer s.lock(CollectionScans)()

	_, err := s.db.ExecContext(ctx, `UPDATE scan_results SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return storageErr("mark scan synced", err)
	}
	return nil
}

func scanRecordFromRow(scan func(dest ...any) error) (*models.ScanRecord, error) {
	var record models.ScanRecord
	var category string
	var payload []byte
	var createdAt int64

	if err := scan(&record.ID, &category, &record.RawText, &payload, &record.Synced, &createdAt); err != nil {
		return nil, err
	}

	record.Category = models.Category(category)
	record.CreatedAt = time.UnixMilli(createdAt)
	if len(payload) > 0 {
		var result models.AnalysisResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("corrupt scan payload: %w", err)
		}
		record.Result = &result
	}
	return &record, nil
}

// ---- sync queue ----

// EnqueueSync appends one deferred write to the sync queue
func (s *Store) EnqueueSync(ctx context.Context, item *models.SyncQueueItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}

	defer s.lock(CollectionSyncQueue)()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, type, payload, retries, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID, item.Type, item.Payload, item.Retries, item.CreatedAt.UnixMilli())
	if err != nil {
		return storageErr("enqueue sync", err)
	}
	return nil
}

// PendingSync returns queued items in insertion order
func (s *Store) PendingSync(ctx context.Context) ([]models.SyncQueueItem, error) {
	defer s.lock(CollectionSyncQueue)()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, payload, retries, created_at
		FROM sync_queue ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, storageErr("pending sync", err)
	}
	defer rows.Close()

	var items []models.SyncQueueItem
	for rows.Next() {
		var item models.SyncQueueItem
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.Type, &item.Payload, &item.Retries, &createdAt); err != nil {
			return nil, storageErr("sync row", err)
		}
		item.CreatedAt = time.UnixMilli(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("pending sync", err)
	}
	return items, nil
}

// RemoveSync deletes one queue item after successful replay
func (s *Store) RemoveSync(ctx context.Context, id string) error {
	defer s.lock(CollectionSyncQueue)()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return storageErr("remove sync", err)
	}
	return nil
}

// BumpSyncRetry increments an item's retry count and drops it once the cap
// is exceeded. Reports whether the item was dropped.
func (s *Store) BumpSyncRetry(ctx context.Context, id string) (bool, error) {
	defer s.lock(CollectionSyncQueue)()

	var retries int
	err := s.db.QueryRowContext(ctx, `SELECT retries FROM sync_queue WHERE id = ?`, id).Scan(&retries)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, storageErr("bump sync retry", err)
	}

	retries++
	if retries >= s.retryCap {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
			return false, storageErr("drop sync item", err)
		}
		return true, nil
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE sync_queue SET retries = ? WHERE id = ?`, retries, id); err != nil {
		return false, storageErr("bump sync retry", err)
	}
	return false, nil
}

// ---- knowledge cache ----

// PutCached stores an enrichment payload under a composite key with a TTL
func (s *Store) PutCached(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	now := s.now()

	defer s.lock(CollectionKnowledgeCache)()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO knowledge_cache (cache_key, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, key, payload, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return storageErr("put cached", err)
	}
	return nil
}

// GetCached loads a cached payload; expired entries are lazily evicted and
// reported as not found
func (s *Store) GetCached(ctx context.Context, key string) ([]byte, error) {
	defer s.lock(CollectionKnowledgeCache)()

	var payload []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, expires_at FROM knowledge_cache WHERE cache_key = ?
	`, key).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get cached", err)
	}

	if time.UnixMilli(expiresAt).Before(s.now()) {
		s.db.ExecContext(ctx, `DELETE FROM knowledge_cache WHERE cache_key = ?`, key)
		return nil, ErrNotFound
	}
	return payload, nil
}

// ---- profile & settings ----

// GetSetting reads one settings value; empty string when unset
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	defer s.lock(CollectionSettings)()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", storageErr("get setting", err)
	}
	return value, nil
}

// PutSetting writes one settings value
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	defer s.lock(CollectionSettings)()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, s.now().UnixMilli())
	if err != nil {
		return storageErr("put setting", err)
	}
	return nil
}

const settingProfile = "profile"

// GetProfile loads the user profile, returning an empty profile when none
// has been saved yet
func (s *Store) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	raw, err := s.GetSetting(ctx, settingProfile)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return &models.UserProfile{}, nil
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("corrupt profile payload: %w", err)
	}
	return &profile, nil
}

// PutProfile saves the user profile
func (s *Store) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = s.now()
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.PutSetting(ctx, settingProfile, string(raw))
}

// ---- stats ----

// Stats reports record counts per collection
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)
	for collection, query := range map[string]string{
		CollectionScans:          `SELECT COUNT(*) FROM scan_results`,
		CollectionSyncQueue:      `SELECT COUNT(*) FROM sync_queue`,
		CollectionKnowledgeCache: `SELECT COUNT(*) FROM knowledge_cache`,
	} {
		unlock := s.lock(collection)
		var count int
		err := s.db.QueryRowContext(ctx, query).Scan(&count)
		unlock()
		if err != nil {
			return nil, storageErr("stats", err)
		}
		stats[collection] = count
	}
	return stats, nil
}
