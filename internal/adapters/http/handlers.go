package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/usecases"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
)

const maxQueryLength = 200

// queryFloat parses a numeric query parameter; absent means 0. Range
// checks are left to the domain.
func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// NearbyPlacesHandler returns the places matching q closest to lat/lon.
// format=text returns the rendered list instead of JSON.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, "lat must be a number")
		}
		lon, err := queryFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, "lon must be a number")
		}
		origin := domain.GeoPoint{Lat: lat, Lon: lon}

		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > maxQueryLength {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		radius, err := queryFloat(c, "radius")
		if err != nil {
			return errBadRequest(c, "radius must be a number")
		}

		result, err := deps.Places.Search(c.UserContext(), &origin, q, radius)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("nearby search failed", "error", err)
			return errSearch(c, err)
		}

		c.Set("Cache-Control", "no-store")
		if c.Query("format") == "text" {
			return c.SendString(usecases.FormatPlaces(result.Places))
		}
		return c.JSON(result)
	}
}

// ChatHandler answers a chat utterance. The reply is always 200: failures
// are expressed through the reply kind and text.
func ChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Text) > maxQueryLength {
			return errBadRequest(c, "text too long (max 200 characters)")
		}

		reply := deps.Chat.Handle(c.UserContext(), req)
		metrics.ChatReplies.WithLabelValues(string(reply.Kind), "http").Inc()

		c.Set("Cache-Control", "no-store")
		return c.JSON(reply)
	}
}
