package chat

import (
	"encoding/json"
	"time"

	"jasaku/server/internal/models"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Client -> server
	EventMessageSend EventType = "message:send"
	EventMessageRead EventType = "message:read"
	EventTypingStart EventType = "typing:start"
	EventTypingStop  EventType = "typing:stop"
	EventGetOnline   EventType = "users:getOnline"

	// Server -> client
	EventMessageReceive EventType = "message:receive"
	EventUserOnline     EventType = "user:online"
	EventUserOffline    EventType = "user:offline"
	EventAck            EventType = "ack"
)

// Event is the server->client frame. AckID correlates a response to the
// client request that carried the same id; exactly one ack is emitted per
// request that supplied one.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	AckID     string      `json:"ackId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent builds an event stamped with the current time
func NewEvent(t EventType, payload interface{}) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now()}
}

// Incoming is the client->server frame
type Incoming struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
	AckID   string          `json:"ackId,omitempty"`
}

// SendPayload is the message:send request body
type SendPayload struct {
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	Type       string  `json:"type,omitempty"`
	FileURL    *string `json:"fileUrl,omitempty"`
}

// ReadPayload is the message:read request body
type ReadPayload struct {
	MessageIDs     []string `json:"messageIds"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// TypingPayload is carried by typing:start / typing:stop in both directions
type TypingPayload struct {
	ReceiverID string `json:"receiverId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	UserName   string `json:"userName,omitempty"`
}

// ReceivePayload is pushed to the receiver of a new message
type ReceivePayload struct {
	Message        models.MessageWithSender `json:"message"`
	ConversationID string                   `json:"conversationId"`
}

// ReadReceiptPayload is pushed to the original sender when messages are read
type ReadReceiptPayload struct {
	MessageIDs []string `json:"messageIds"`
	ReadBy     string   `json:"readBy"`
}

// PresencePayload is broadcast on user:online / user:offline
type PresencePayload struct {
	UserID string `json:"userId"`
}

// OnlinePayload answers users:getOnline
type OnlinePayload struct {
	OnlineUsers []string `json:"onlineUsers"`
}

// AckSuccess and AckFailure are the two terminal ack shapes
func AckSuccess(data map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func AckFailure(msg string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": msg}
}
