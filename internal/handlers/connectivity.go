package handlers

import (
	"github.com/gofiber/fiber/v2"

	"labelsense/internal/services"
)

// ConnectivityHandler lets clients report connectivity transitions
type ConnectivityHandler struct {
	connectivity *services.ConnectivityService
	sync         *services.SyncService
}

// NewConnectivityHandler creates a new connectivity handler
func NewConnectivityHandler(connectivity *services.ConnectivityService, syncService *services.SyncService) *ConnectivityHandler {
	return &ConnectivityHandler{connectivity: connectivity, sync: syncService}
}

// ConnectivityRequest is the POST /api/connectivity body
type ConnectivityRequest struct {
	Online bool `json:"online"`
}

// Handle records a connectivity transition. Going online triggers a sync
// replay through the registered listener.
// POST /api/connectivity
func (h *ConnectivityHandler) Handle(c *fiber.Ctx) error {
	var req ConnectivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	changed := h.connectivity.SetOnline(req.Online)

	pending, err := h.sync.Pending(c.Context())
	if err != nil {
		return storageStatus(c, err, "Failed to read sync queue")
	}

	return c.JSON(fiber.Map{
		"online":       req.Online,
		"changed":      changed,
		"pending_sync": pending,
	})
}
