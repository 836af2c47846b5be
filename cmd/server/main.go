// cmd/server/main.go
// This is the entry point for the Community Chat server.
// In Go, the "main" package and its "main()" function is where the program starts executing.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds reusable packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors handles Cross-Origin Resource Sharing: it lets the web app talk to the API
	// even though they're served from different origins (hosts/ports)
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"
	// recover turns a panic in a handler into a 500 instead of crashing the process
	"github.com/gofiber/fiber/v2/middleware/recover"

	// Internal packages: our own code, imported by module path
	"github.com/trentd187/community-chat/internal/chat"
	"github.com/trentd187/community-chat/internal/config"
	"github.com/trentd187/community-chat/internal/database"
	"github.com/trentd187/community-chat/internal/handlers"
	"github.com/trentd187/community-chat/internal/store"
)

// shutdownTimeout bounds how long in-flight requests get to finish on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	// cfg is a pointer (*Config) containing all runtime settings like port, database URL, etc.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	setupLogging(cfg.Env)

	// Connect to the PostgreSQL database.
	// We keep the returned *gorm.DB: the stores run every query through it.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Run any pending SQL migration files (in the migrations/ directory).
	// Running them on startup keeps the schema in sync with the code that's deployed.
	if err := database.RunMigrations(database.MigrationsSource, cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// ctx is cancelled on SIGINT or SIGTERM. Chat sessions watch it and close their
	// sockets with "going away" when it fires.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the chat Hub and start it in a goroutine.
	// The Hub owns every live connection and room; all changes to them go through it.
	// hubCtx outlives ctx so sessions can still deregister while they shut down.
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := chat.NewHub()
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	// Create a new Fiber app (our HTTP server).
	app := fiber.New(fiber.Config{
		AppName: "Community Chat",
	})

	// --- Global middleware ---
	// These run on every request before any route handler.
	app.Use(recover.New())
	// logger.New() logs each HTTP request: method, path, status code, and duration.
	app.Use(logger.New())
	// Only the configured browser origins may call the API.
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	handlers.Register(app, handlers.Deps{
		Ctx:       ctx,
		Users:     store.NewUsers(db),
		Groups:    store.NewGroups(db),
		Hub:       hub,
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
		Chat: handlers.ChatOptions{
			DefaultRoom: cfg.Chat.DefaultRoom,
			Session: chat.SessionConfig{
				HeartbeatInterval: cfg.Chat.HeartbeatInterval,
				ClientTimeout:     cfg.Chat.ClientTimeout,
				ExcludeSender:     cfg.Chat.ExcludeSender,
				MailboxSize:       cfg.Chat.MailboxSize,
			},
			Origins: cfg.Chat.Origins,
		},
	})

	// Start listening in the background so main can wait for a shutdown signal.
	// ":" + cfg.Port produces a string like ":8080": listen on all network interfaces.
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		stopHub()
		log.Fatal("Server stopped: ", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("shutdown", "error", err)
	}
	stopHub()
	<-hubDone

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// setupLogging installs the process-wide slog handler: readable text in
// development, JSON everywhere else so log collectors can parse it.
func setupLogging(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
