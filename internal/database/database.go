package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// Logical collections of the persistent store
const (
	CollectionScans          = "scan_results"
	CollectionSyncQueue      = "sync_queue"
	CollectionKnowledgeCache = "knowledge_cache"
	CollectionSettings       = "settings"
)

// DB wraps the SQLite database connection. The store is embedded and
// offline-first: every write lands locally whether or not the device
// currently has connectivity.
type DB struct {
	*sql.DB
}

// New opens (or creates) the database at the given path
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps single-record transactions trivially serialized.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Initialize creates all required tables and indexes
func (db *DB) Initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS scan_results (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			payload TEXT NOT NULL,
			synced INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_created ON scan_results (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_results_category ON scan_results (category, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			payload BLOB NOT NULL,
			retries INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_created ON sync_queue (created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_type ON sync_queue (type, created_at ASC)`,

		`CREATE TABLE IF NOT EXISTS knowledge_cache (
			cache_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_cache_created ON knowledge_cache (created_at)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	log.Println("✅ Database initialized")
	return nil
}
