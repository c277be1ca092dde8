package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// GetSettingsHandler returns the chat settings currently in effect.
func GetSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Settings == nil {
			return newError(c, 404, "not_found", "settings store is not configured")
		}
		settings, err := deps.Settings.GetSettings(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("read settings", "error", err)
			return errInternal(c, "failed to read settings")
		}
		return c.JSON(settings)
	}
}

// PutSettingsHandler replaces the chat settings. Empty fields and a
// non-positive radius are stored as their defaults.
func PutSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Settings == nil {
			return newError(c, 404, "not_found", "settings store is not configured")
		}
		var settings domain.Settings
		if err := c.BodyParser(&settings); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if settings.SearchRadius > domain.MaxSearchRadius {
			return errBadRequest(c, "search_radius must be at most 50000 meters")
		}
		settings = settings.WithDefaults()

		if err := deps.Settings.PutSettings(c.UserContext(), settings); err != nil {
			LoggerFromCtx(c.UserContext()).Error("write settings", "error", err)
			return errInternal(c, "failed to write settings")
		}
		return c.JSON(settings)
	}
}
