package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/community-chat/internal/chat"
	"github.com/trentd187/community-chat/internal/middleware"
)

// Users is everything the routes need from the user store.
type Users interface {
	UserStore
	middleware.UserFinder
}

// Deps bundles what Register wires into the routes.
type Deps struct {
	Ctx       context.Context // Server lifetime; cancelling it closes chat sessions
	Users     Users
	Groups    GroupStore
	Hub       *chat.Hub
	JWTSecret []byte
	TokenTTL  time.Duration
	Chat      ChatOptions
}

// Register mounts every route on app.
//
// Paths match the ones the web app already calls. Signup, login, the group list,
// health and the chat socket are public; everything else needs a valid token
// whose user still exists.
func Register(app *fiber.App, d Deps) {
	// --- Public routes (no auth required) ---
	app.Get("/health", HealthCheck(d.Hub))
	app.Post("/signup", Signup(d.Users))
	app.Post("/login", Login(d.Users, d.JWTSecret, d.TokenTTL))
	app.Get("/groups", ListGroups(d.Groups))

	// GET /ws?room=lobby upgrades to a chat connection. Chat participants are not
	// authenticated: anyone who can reach the server can join a room. Browsers are
	// held to d.Chat.Origins.
	app.Get("/ws", ChatUpgrade(d.Chat.Origins), Chat(d.Ctx, d.Hub, d.Chat))

	// --- Authenticated routes ---
	// Auth validates the token; RequireUser loads the account behind it.
	authed := []fiber.Handler{middleware.Auth(d.JWTSecret), middleware.RequireUser(d.Users)}
	with := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, authed...), h)
	}

	app.Get("/profile", with(Profile)...)
	app.Post("/create-group", with(CreateGroup(d.Groups))...)
	app.Post("/join-group", with(JoinGroup(d.Groups))...)
	app.Post("/leave-group", with(LeaveGroup(d.Groups))...)
	app.Put("/update-group", with(UpdateGroup(d.Groups))...)
	app.Delete("/groups/:id", with(DeleteGroup(d.Groups))...)
}
