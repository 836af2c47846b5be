package handlers

// chat.go upgrades GET /ws requests to WebSocket connections and hands each one
// to a chat.Session for the rest of its life.

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	fiberws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/community-chat/internal/chat"
	"github.com/trentd187/community-chat/internal/websocket"
)

// ChatOptions configures the chat endpoint.
type ChatOptions struct {
	DefaultRoom string             // Room joined when ?room= is absent or blank
	Session     chat.SessionConfig // Heartbeat timings, sender policy, mailbox size
	Origins     []string           // Allowed Origin headers; empty or containing "*" allows all
}

// ChatUpgrade returns the gate in front of Chat. Plain HTTP requests get 426
// Upgrade Required. An upgrade whose Origin header is not in origins gets 403.
// Requests without an Origin header come from non-browser clients and pass.
func ChatUpgrade(origins []string) fiber.Handler {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(c *fiber.Ctx) error {
		if !fiberws.IsWebSocketUpgrade(c) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
				"error": "websocket upgrade required",
			})
		}
		if origin := c.Get(fiber.HeaderOrigin); origin != "" && !allowAll && !slices.Contains(origins, origin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "origin not allowed",
			})
		}
		return c.Next()
	}
}

// Chat returns the handler for GET /ws?room=<name>. It must run after ChatUpgrade,
// which has already checked the origin.
//
// Every accepted connection runs one chat.Session in the connection's own
// goroutine. ctx is the server's lifetime: cancelling it closes every session
// with "going away".
func Chat(ctx context.Context, hub *chat.Hub, opts ChatOptions) fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		join := chat.JoinEvent(c.Query("room"), opts.DefaultRoom)
		session := chat.NewSession(hub, websocket.NewConn(c), join, opts.Session)

		err := session.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, chat.ErrHeartbeatTimeout):
			// Already logged by the session.
		default:
			slog.Info("chat session ended", "room", join.Room, "connectionId", session.ID(), "error", err)
		}
	})
}
