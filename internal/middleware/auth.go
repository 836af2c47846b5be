// Package middleware contains HTTP middleware functions for the chat server.
// Middleware sits between the HTTP server and route handlers: it runs on every
// request that passes through it, which makes it the right place for cross-cutting
// concerns like authentication.
package middleware

import (
	"strings"

	// fiber is the HTTP framework; fiber.Handler is the function signature for middleware
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/community-chat/internal/auth"
)

// LocalUserID is the c.Locals key under which Auth stores the caller's UUID (as a string).
const LocalUserID = "userID"

// Auth returns a Fiber middleware handler that:
//  1. Extracts the JWT from the "Authorization: Bearer <token>" header
//  2. Verifies its signature, issuer and expiry with the server's secret
//  3. Stores the user's UUID in the request context (c.Locals) so downstream
//     handlers can read it without re-parsing the token
//
// This is a closure that captures secret, so it is available every time a request comes in.
func Auth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		// Strip the "Bearer " prefix to get just the raw JWT string
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := auth.ParseToken(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		// claims.Subject is the standard JWT "sub" field; we put the user's UUID there at login.
		c.Locals(LocalUserID, claims.Subject)

		return c.Next()
	}
}
