// Package handlers contains the HTTP route handler functions for the chat server.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the store or the chat hub, and writing a response.
//
// Exported functions follow the "handler factory" pattern: they take their
// dependencies (stores, the hub, config values) and return a fiber.Handler. This
// injects dependencies without global variables, and lets tests pass in fakes.
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/community-chat/internal/chat"
)

// ChatStats is the part of *chat.Hub the health check reads.
type ChatStats interface {
	Stats(ctx context.Context) (chat.Stats, error)
}

// HealthCheck returns a handler for GET /health.
// It reports that the server is alive along with how many chat rooms and connections
// are live. It never touches the database, and it's what load balancers and
// container liveness probes poll. If the chat hub has stopped, it answers 503.
func HealthCheck(hub ChatStats) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := hub.Stats(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status":      "ok",
			"rooms":       stats.Rooms,
			"connections": stats.Connections,
		})
	}
}
