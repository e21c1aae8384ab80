package routes

import (
	"jasaku/server/internal/handlers"
	"jasaku/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, ws *handlers.WSHandler, chat *handlers.ChatHandler, bookingChat *handlers.BookingChatHandler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Jasaku API is running",
		})
	})

	// Chat routes (protected)
	chatGroup := api.Group("/chat", middleware.AuthMiddleware)
	chatGroup.Get("/conversations", middleware.RelaxedRateLimiter(), chat.GetConversations)
	chatGroup.Get("/messages/:otherUserId", middleware.RelaxedRateLimiter(), chat.GetMessages)
	chatGroup.Get("/unread-count", middleware.RelaxedRateLimiter(), chat.GetUnreadCount)
	chatGroup.Delete("/messages/:messageId", middleware.ModerateRateLimiter(), chat.DeleteMessage)
	chatGroup.Get("/search", middleware.ModerateRateLimiter(), chat.SearchMessages)

	// Booking-scoped chat (protected)
	bookings := api.Group("/bookings", middleware.AuthMiddleware)
	bookings.Get("/:bookingId/messages", middleware.RelaxedRateLimiter(), bookingChat.GetMessages)
	bookings.Post("/:bookingId/messages", middleware.ModerateRateLimiter(), bookingChat.PostMessage)

	// WebSocket route; admission runs in the gate, which tolerates a missing
	// credential when anonymous connections are enabled
	api.Get("/ws", ws.Upgrade, websocket.New(ws.Handle))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, ws.Stats)
}
