package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithScan returns a logger with scan context fields attached.
// Use this for all logging within one analysis run.
func WithScan(scanID string, category string) *slog.Logger {
	return slog.With(
		"scan_id", scanID,
		"category", category,
	)
}

// WithSource returns a logger scoped to one capability source.
func WithSource(logger *slog.Logger, source, capability string) *slog.Logger {
	return logger.With(
		"source", source,
		"capability", capability,
	)
}
