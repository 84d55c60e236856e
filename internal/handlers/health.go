package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"labelsense/internal/database"
	"labelsense/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db           *database.DB
	connectivity *services.ConnectivityService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, connectivity *services.ConnectivityService) *HealthHandler {
	return &HealthHandler{db: db, connectivity: connectivity}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"online":    h.connectivity.Online(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
