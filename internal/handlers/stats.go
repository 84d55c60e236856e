package handlers

import (
	"github.com/gofiber/fiber/v2"

	"labelsense/internal/database"
	"labelsense/internal/jobs"
	"labelsense/internal/knowledge"
	"labelsense/internal/services"
)

// StatsHandler reports store, queue and scheduler statistics
type StatsHandler struct {
	store        *database.Store
	sync         *services.SyncService
	scheduler    *jobs.Scheduler
	base         *knowledge.Base
	connectivity *services.ConnectivityService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(
	store *database.Store,
	syncService *services.SyncService,
	scheduler *jobs.Scheduler,
	base *knowledge.Base,
	connectivity *services.ConnectivityService,
) *StatsHandler {
	return &StatsHandler{
		store:        store,
		sync:         syncService,
		scheduler:    scheduler,
		base:         base,
		connectivity: connectivity,
	}
}

// Handle returns record counts, sync backlog, retention state and job status
// GET /api/stats
func (h *StatsHandler) Handle(c *fiber.Ctx) error {
	counts, err := h.store.Stats(c.Context())
	if err != nil {
		return storageStatus(c, err, "Failed to load stats")
	}

	retention, err := h.store.RetentionReport(c.Context())
	if err != nil {
		return storageStatus(c, err, "Failed to load retention report")
	}

	return c.JSON(fiber.Map{
		"collections": counts,
		"retention":   retention,
		"online":      h.connectivity.Online(),
		"jobs":        h.scheduler.Status(),
		"knowledge": fiber.Map{
			"version": h.base.Version(),
			"entries": h.base.Len(),
		},
	})
}
