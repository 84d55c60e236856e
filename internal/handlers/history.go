package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"labelsense/internal/database"
	"labelsense/internal/models"
	"labelsense/internal/services"
)

// HistoryHandler handles scan history HTTP requests
type HistoryHandler struct {
	analysis *services.AnalysisService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(analysis *services.AnalysisService) *HistoryHandler {
	return &HistoryHandler{analysis: analysis}
}

// List pages through stored scans, newest first
// GET /api/history?category=&limit=&offset=
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	category := models.Category(c.Query("category"))
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	records, err := h.analysis.History(c.Context(), category, limit, offset)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return storageStatus(c, err, "Failed to load history")
	}

	if records == nil {
		records = []models.ScanRecord{}
	}
	return c.JSON(fiber.Map{
		"scans":  records,
		"limit":  limit,
		"offset": offset,
	})
}

// Get loads one stored scan
// GET /api/history/:id
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	record, err := h.analysis.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Scan not found",
			})
		}
		return storageStatus(c, err, "Failed to load scan")
	}
	return c.JSON(record)
}

// Delete removes one stored scan
// DELETE /api/history/:id
func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.analysis.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Scan not found",
			})
		}
		return storageStatus(c, err, "Failed to delete scan")
	}
	return c.JSON(fiber.Map{"deleted": true})
}
