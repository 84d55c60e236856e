package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string
	SourcesFile  string // optional override for the bundled source registry

	// Enrichment cache
	IntelligenceTTL time.Duration // TTL for cached enrichment results

	// Outbound throttle across all capability sources
	GlobalSourceRate  float64 // requests per second
	GlobalSourceBurst int

	// Retention (zero duration means never expire)
	ScanRetention           time.Duration
	SyncQueueRetention      time.Duration
	KnowledgeCacheRetention time.Duration
	SweepInterval           time.Duration

	// Sync replay
	SyncEndpoint   string // remote sync URL, empty disables remote delivery
	SyncRetryCap   int
	ReplayInterval time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3001"),
		DatabasePath: getEnv("DATABASE_PATH", "labelsense.db"),
		SourcesFile:  getEnv("SOURCES_FILE", ""),

		IntelligenceTTL: getDurationEnv("INTELLIGENCE_CACHE_TTL", time.Hour),

		GlobalSourceRate:  getFloatEnv("SOURCE_GLOBAL_RATE", 10),
		GlobalSourceBurst: getIntEnv("SOURCE_GLOBAL_BURST", 20),

		ScanRetention:           getDurationEnv("SCAN_RETENTION", 90*24*time.Hour),
		SyncQueueRetention:      getDurationEnv("SYNC_QUEUE_RETENTION", 7*24*time.Hour),
		KnowledgeCacheRetention: getDurationEnv("KNOWLEDGE_CACHE_RETENTION", 24*time.Hour),
		SweepInterval:           getDurationEnv("SWEEP_INTERVAL", 24*time.Hour),

		SyncEndpoint:   getEnv("SYNC_ENDPOINT", ""),
		SyncRetryCap:   getIntEnv("SYNC_RETRY_CAP", 3),
		ReplayInterval: getDurationEnv("SYNC_REPLAY_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
