package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness and the build version.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// readinessCheck reports a component's state, or an error when it is unusable.
type readinessCheck func(ctx context.Context) (state string, err error)

// ReadyHandler probes the settings store and the NATS connection. The
// search pipeline itself has no standing connections to probe.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := map[string]readinessCheck{
		"search": func(context.Context) (string, error) {
			if deps.Places == nil {
				return "", errors.New("not configured")
			}
			return "ok", nil
		},
		"settings": func(ctx context.Context) (string, error) {
			if deps.Settings == nil {
				return "static", nil
			}
			if err := deps.Settings.Ping(ctx); err != nil {
				return "", err
			}
			return "ok", nil
		},
		"nats": func(context.Context) (string, error) {
			switch {
			case deps.NATS == nil:
				return "not configured", nil
			case !deps.NATS.IsConnected():
				return "", errors.New("disconnected")
			}
			return "ok", nil
		},
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			state, err := check(ctx)
			if err != nil {
				state = "error: " + err.Error()
				ready = false
			}
			results[name] = state
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
			"checks": results,
		})
	}
}
