package handlers

import (
	"github.com/gofiber/fiber/v2"

	"labelsense/internal/knowledge"
	"labelsense/internal/models"
)

// KnowledgeHandler exposes the bundled regulatory knowledge base
type KnowledgeHandler struct {
	base *knowledge.Base
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(base *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{base: base}
}

// List returns knowledge entries, optionally filtered by category
// GET /api/knowledge?category=
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	category := c.Query("category")

	var entries []models.KnowledgeEntry
	if category != "" {
		entries = h.base.ByCategory(category)
	} else {
		entries = h.base.All()
	}
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}

	return c.JSON(fiber.Map{
		"version": h.base.Version(),
		"entries": entries,
	})
}

// Get looks up one entry by E-number, name or alias
// GET /api/knowledge/:id
func (h *KnowledgeHandler) Get(c *fiber.Ctx) error {
	entry := h.base.Lookup(c.Params("id"))
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown additive",
		})
	}
	return c.JSON(entry)
}

// Controversial returns all entries with documented controversies
// GET /api/knowledge/controversial
func (h *KnowledgeHandler) Controversial(c *fiber.Ctx) error {
	entries := h.base.Controversial()
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}
	return c.JSON(fiber.Map{
		"version": h.base.Version(),
		"entries": entries,
	})
}

// RegulatoryDifferences returns entries whose approval status differs
// between jurisdictions
// GET /api/knowledge/regulatory-differences
func (h *KnowledgeHandler) RegulatoryDifferences(c *fiber.Ctx) error {
	entries := h.base.RegulatoryDifferences()
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}
	return c.JSON(fiber.Map{
		"version": h.base.Version(),
		"entries": entries,
	})
}
