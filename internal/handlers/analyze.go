package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"labelsense/internal/models"
	"labelsense/internal/services"
)

// AnalyzeHandler handles label analysis requests
type AnalyzeHandler struct {
	analysis *services.AnalysisService
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analysis *services.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis}
}

// AnalyzeRequest is the POST /api/analyze body
type AnalyzeRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Handle runs one label through the analysis pipeline
// POST /api/analyze
func (h *AnalyzeHandler) Handle(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	category := models.Category(req.Category)
	if req.Category == "" {
		category = models.CategoryFood
	}

	record, err := h.analysis.Analyze(c.Context(), req.Text, category)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return storageStatus(c, err, "Analysis failed")
	}

	return c.JSON(record)
}
