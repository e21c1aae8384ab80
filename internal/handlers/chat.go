package handlers

import (
	"context"
	"strconv"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConversationIndex is what the REST surface needs from the conversation
// summary store
type ConversationIndex interface {
	ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	TotalUnread(ctx context.Context, userID string) (int, error)
}

// MessageIndex is what the REST surface needs from the message store
type MessageIndex interface {
	Insert(ctx context.Context, m *models.Message) error
	ListByKey(ctx context.Context, key chat.Key, page, limit int) ([]models.MessageWithSender, int, error)
	MarkConversationRead(ctx context.Context, key chat.Key, receiverID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id, senderID string) (bool, error)
	Search(ctx context.Context, userID, query, conversationKey string) ([]models.MessageWithSender, error)
}

// ChatHandler serves the request/response chat surface for clients that
// poll instead of holding a socket open
type ChatHandler struct {
	convs    ConversationIndex
	messages MessageIndex
	log      *zap.Logger
}

func NewChatHandler(convs ConversationIndex, messages MessageIndex, log *zap.Logger) *ChatHandler {
	return &ChatHandler{convs: convs, messages: messages, log: log}
}

// GetConversations lists the caller's conversation summaries
func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	summaries, err := h.convs.ListForUser(c.Context(), userID)
	if err != nil {
		h.log.Error("list conversations failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summaries,
	})
}

// GetMessages returns paginated history between the caller and another user,
// oldest first within the page. Read-marking stays a separate explicit call
// on this path.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	otherID := c.Params("otherUserId")

	page, limit := pagination(c)
	key := chat.NewPairKey(userID, otherID)

	messages, total, err := h.messages.ListByKey(c.Context(), key, page, limit)
	if err != nil {
		h.log.Error("message history failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"messages": messages,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}

// GetUnreadCount returns the caller's total unread count across all
// conversations
func (h *ChatHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	total, err := h.convs.TotalUnread(c.Context(), userID)
	if err != nil {
		h.log.Error("unread count failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"unreadCount": total},
	})
}

// DeleteMessage hard-deletes a message. Only the sender may delete.
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	messageID := c.Params("messageId")

	deleted, err := h.messages.Delete(c.Context(), messageID, userID)
	if err != nil {
		h.log.Error("message delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Message not found or you are not the sender",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message deleted",
	})
}

// SearchMessages finds messages in the caller's own conversations by
// content substring, optionally scoped to one conversation
func (h *ChatHandler) SearchMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	query := c.Query("query")
	conversationID := c.Query("conversationId")

	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Search query is required",
		})
	}

	messages, err := h.messages.Search(c.Context(), userID, query, conversationID)
	if err != nil {
		h.log.Error("message search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"messages": messages},
	})
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return page, limit
}
