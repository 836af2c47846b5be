package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/community-chat/internal/models"
	"github.com/trentd187/community-chat/internal/store"
)

// LocalUser is the c.Locals key under which RequireUser stores the caller's models.User.
const LocalUser = "user"

// UserFinder is the part of the user store RequireUser needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// RequireUser returns a middleware handler that loads the account behind the token
// and rejects the request with 401 if it no longer exists (a token can outlive
// its user).
//
// RequireUser must be used AFTER the Auth middleware, because Auth is what
// populates the "userID" value in the request context:
//
//	app.Get("/profile", middleware.Auth(secret), middleware.RequireUser(users), handlers.Profile)
func RequireUser(users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr, ok := c.Locals(LocalUserID).(string)
		if !ok || idStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthenticated",
			})
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid user ID",
			})
		}

		user, err := users.FindByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "account no longer exists",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "database error",
			})
		}

		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(LocalUser).(models.User)
	return user, ok
}
