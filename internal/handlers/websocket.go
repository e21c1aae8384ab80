package handlers

import (
	"jasaku/server/internal/chat"
	"jasaku/server/internal/middleware"
	"jasaku/server/internal/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WSHandler admits and wires real-time connections
type WSHandler struct {
	gate     *chat.Gate
	registry *chat.Registry
	users    chat.UserFinder
	messages chat.MessageStore
	convs    chat.ConversationStore
	log      *zap.Logger
}

func NewWSHandler(gate *chat.Gate, registry *chat.Registry, users chat.UserFinder, messages chat.MessageStore, convs chat.ConversationStore, log *zap.Logger) *WSHandler {
	return &WSHandler{
		gate:     gate,
		registry: registry,
		users:    users,
		messages: messages,
		convs:    convs,
		log:      log,
	}
}

// Upgrade runs the connection gate before the protocol switch. A rejected
// credential never reaches the socket layer.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"success": false,
			"error":   "WebSocket upgrade required",
		})
	}

	user, err := h.gate.Admit(c.Context(), middleware.TokenFrom(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	c.Locals("wsUser", user)
	return c.Next()
}

// Handle runs one admitted connection: register, pump, unregister
func (h *WSHandler) Handle(conn *websocket.Conn) {
	user := conn.Locals("wsUser").(models.UserResponse)

	session := chat.NewSession(user, h.registry, h.users, h.messages, h.convs, h.log)
	client := chat.NewClient(session, conn, h.registry, h.log)

	h.registry.Register(user.ID, client)

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes
}

// Stats returns live connection statistics
func (h *WSHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"onlineUsers": h.registry.Count(),
			"userIds":     h.registry.Online(),
		},
	})
}
