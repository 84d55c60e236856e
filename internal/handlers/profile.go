package handlers

import (
	"github.com/gofiber/fiber/v2"

	"labelsense/internal/database"
	"labelsense/internal/models"
)

// ProfileHandler handles user profile HTTP requests
type ProfileHandler struct {
	store *database.Store
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(store *database.Store) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// Get retrieves the user profile
// GET /api/profile
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.Context())
	if err != nil {
		return storageStatus(c, err, "Failed to load profile")
	}
	return c.JSON(profile)
}

// Update replaces the user profile
// PUT /api/profile
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var profile models.UserProfile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.store.PutProfile(c.Context(), &profile); err != nil {
		return storageStatus(c, err, "Failed to save profile")
	}
	return c.JSON(profile)
}
