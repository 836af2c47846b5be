package handlers

// users.go handles account signup, login and the caller's own profile.

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/community-chat/internal/auth"
	"github.com/trentd187/community-chat/internal/middleware"
	"github.com/trentd187/community-chat/internal/models"
	"github.com/trentd187/community-chat/internal/store"
)

const minPasswordLength = 8

// UserStore is the part of the user store the account handlers need.
// *store.Users implements it.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SignupRequest is the JSON body we expect on POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body we expect on POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what a successful login returns. The token goes in the
// Authorization header of later requests.
type LoginResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// normalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateSignup returns a client-facing message for the first problem found, or "".
func validateSignup(req SignupRequest) string {
	switch {
	case req.Username == "":
		return "username is required"
	case req.Email == "":
		return "email is required"
	case req.Password == "":
		return "password is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "email is not valid"
	}
	if len(req.Password) < minPasswordLength {
		return "password must be at least 8 characters"
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return "password must be at most 72 bytes"
	}
	return ""
}

// Signup returns a handler for POST /signup.
// It creates the account and returns the public view of it with HTTP 201.
func Signup(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = normalizeEmail(req.Email)

		if msg := validateSignup(req); msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			slog.Error("hash password", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "user creation failed",
			})
		}

		user, err := users.CreateUser(c.UserContext(), req.Username, req.Email, hash)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "email already registered",
				})
			}
			slog.Error("create user", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "user creation failed",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(user.Public())
	}
}

// Login returns a handler for POST /login.
// Unknown emails and wrong passwords get the same 401 so the response doesn't
// reveal which accounts exist.
func Login(users UserStore, secret []byte, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		user, err := users.FindByEmail(c.UserContext(), normalizeEmail(req.Email))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("find user", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "database error",
			})
		}
		if err != nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid credentials",
			})
		}

		token, err := auth.IssueToken(secret, user.Public(), ttl, time.Now())
		if err != nil {
			slog.Error("issue token", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not issue token",
			})
		}

		return c.JSON(LoginResponse{User: user.Public(), Token: token})
	}
}

// Profile handles GET /profile. It must run after middleware.Auth and
// middleware.RequireUser, which load the caller's account.
func Profile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthenticated",
		})
	}
	return c.JSON(user.Public())
}
