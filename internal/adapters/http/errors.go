package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, upstream_unavailable, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errUpstream returns a 502 error.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "upstream_unavailable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errSearch maps search pipeline errors to responses.
func errSearch(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrMissingLocation), errors.Is(err, domain.ErrInvalidLocation),
		errors.Is(err, domain.ErrInvalidRadius):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrSearchUnavailable):
		return errUpstream(c, "feature search is unavailable, please try again later")
	default:
		return errInternal(c, err.Error())
	}
}
