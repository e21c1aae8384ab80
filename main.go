package main

import (
	"context"
	"log"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/config"
	"jasaku/server/internal/database"
	"jasaku/server/internal/handlers"
	"jasaku/server/internal/logger"
	"jasaku/server/internal/routes"
	"jasaku/server/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	zlog.Info("database connected")

	// Data access
	users := store.NewUsers(pool)
	messages := store.NewMessages(pool)
	conversations := store.NewConversations(pool)
	bookings := store.NewBookings(pool)

	// One presence registry per process; every connection handler gets this
	// instance by reference
	registry := chat.NewRegistry(users, zlog)
	gate := chat.NewGate(users, cfg.AllowAnonymousWS, zlog)

	wsHandler := handlers.NewWSHandler(gate, registry, users, messages, conversations, zlog)
	chatHandler := handlers.NewChatHandler(conversations, messages, zlog)
	bookingChatHandler := handlers.NewBookingChatHandler(bookings, messages, users, registry, zlog)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Jasaku API v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app, wsHandler, chatHandler, bookingChatHandler)

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
