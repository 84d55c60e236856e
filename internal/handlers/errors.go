package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"labelsense/internal/database"
)

// storageStatus maps a storage-layer failure onto its HTTP status.
// Retryable storage errors answer 503 so clients can back off and retry;
// anything else is a plain 500 with the given message.
func storageStatus(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, database.ErrStorage) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Storage temporarily unavailable",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": message,
	})
}
