package handlers

import (
	"context"
	"strings"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BookingIndex resolves booking records for authorization
type BookingIndex interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
}

// Notifier is the live fan-out substrate. Both this REST path and the
// socket path produce into it; a miss is normal when the receiver holds no
// connection.
type Notifier interface {
	PushTo(userID string, ev chat.Event) bool
}

// BookingChatHandler is the booking-anchored chat variant: request/response
// instead of a persistent connection, the booking record instead of a
// conversation record.
type BookingChatHandler struct {
	bookings BookingIndex
	messages MessageIndex
	users    chat.UserFinder
	notifier Notifier
	log      *zap.Logger
}

func NewBookingChatHandler(bookings BookingIndex, messages MessageIndex, users chat.UserFinder, notifier Notifier, log *zap.Logger) *BookingChatHandler {
	return &BookingChatHandler{
		bookings: bookings,
		messages: messages,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

type bookingMessageInput struct {
	Content string `json:"content"`
}

// PostMessage appends a message to a booking's stream. Only the booking's
// two parties may post, and only once the booking has been accepted.
func (h *BookingChatHandler) PostMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	bookingID := c.Params("bookingId")

	var input bookingMessageInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Content is required",
		})
	}

	booking, status, errMsg := h.authorize(c.Context(), bookingID, userID)
	if booking == nil {
		return c.Status(status).JSON(fiber.Map{"success": false, "error": errMsg})
	}

	key := chat.BookingKey{BookingID: booking.ID}
	msg := &models.Message{
		ConversationKey: key.String(),
		SenderID:        userID,
		ReceiverID:      booking.OtherParty(userID),
		Content:         content,
		Type:            models.MessageTypeText,
	}
	if err := h.messages.Insert(c.Context(), msg); err != nil {
		h.log.Error("booking message insert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send message",
		})
	}

	// Converge on the socket path's fan-out: if the receiver holds a live
	// connection, they get the same message:receive push as a direct send.
	h.notifier.PushTo(msg.ReceiverID, chat.NewEvent(chat.EventMessageReceive, chat.ReceivePayload{
		Message:        msg.WithSender(h.senderProfile(c, userID)),
		ConversationID: key.String(),
	}))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}

// GetMessages returns one page of the booking's stream in chronological
// order. Fetching is the read acknowledgement on this path: every unread
// message addressed to the caller flips to read as a side effect.
func (h *BookingChatHandler) GetMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	bookingID := c.Params("bookingId")

	booking, status, errMsg := h.authorize(c.Context(), bookingID, userID)
	if booking == nil {
		return c.Status(status).JSON(fiber.Map{"success": false, "error": errMsg})
	}

	key := chat.BookingKey{BookingID: booking.ID}

	if _, err := h.messages.MarkConversationRead(c.Context(), key, userID, time.Now()); err != nil {
		h.log.Warn("booking read-mark failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}

	page, limit := pagination(c)
	messages, total, err := h.messages.ListByKey(c.Context(), key, page, limit)
	if err != nil {
		h.log.Error("booking message list failed", zap.Error(err))
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

// authorize resolves the booking and checks the caller may chat on it.
// Returns (nil, status, message) on refusal.
func (h *BookingChatHandler) authorize(ctx context.Context, bookingID, userID string) (*models.Booking, int, string) {
	booking, err := h.bookings.Get(ctx, bookingID)
	if err != nil {
		h.log.Error("booking lookup failed", zap.Error(err))
		return nil, fiber.StatusInternalServerError, "Database error"
	}
	if booking == nil {
		return nil, fiber.StatusNotFound, "Booking not found"
	}
	if !booking.HasParty(userID) {
		return nil, fiber.StatusForbidden, "You are not a participant of this booking"
	}
	if !booking.ChatEligible() {
		return nil, fiber.StatusForbidden, "Chat is only available for accepted bookings"
	}
	return booking, 0, ""
}

// senderProfile fetches the sender's display profile for the push, falling
// back to the claims already on the request
func (h *BookingChatHandler) senderProfile(c *fiber.Ctx, userID string) models.UserResponse {
	if user, err := h.users.FindByID(c.Context(), userID); err == nil && user != nil {
		return user.ToResponse()
	}
	name, _ := c.Locals("name").(string)
	return models.UserResponse{ID: userID, Name: name}
}
