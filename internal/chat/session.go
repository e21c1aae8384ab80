package chat

import (
	"context"
	"strings"
	"time"

	"jasaku/server/internal/models"

	"go.uber.org/zap"
)

// MessageStore is the durable message record. Insert assigns ID and
// CreatedAt; MarkRead flips read state on the subset of ids addressed to
// receiverID that are still unread, atomically, and returns the ids it
// actually flipped.
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	MarkRead(ctx context.Context, receiverID string, ids []string, at time.Time) ([]string, error)
}

// ConversationStore is the per-pair summary index. FindOrCreate must be
// safe against concurrent first contact from both ends; ApplySend advances
// the last-message pointer and increments the receiver's unread counter in
// one atomic step; ResetUnread zeroes the user's own counter and is a no-op
// when the conversation does not exist.
type ConversationStore interface {
	FindOrCreate(ctx context.Context, key PairKey) (*models.Conversation, error)
	ApplySend(ctx context.Context, key PairKey, messageID string, at time.Time, receiverID string) error
	ResetUnread(ctx context.Context, key PairKey, userID string) error
}

// Session is the verb set bound to one admitted connection. It holds the
// identity resolved by the gate so handlers never re-query it.
type Session struct {
	User models.UserResponse

	registry *Registry
	users    UserFinder
	messages MessageStore
	convs    ConversationStore
	log      *zap.Logger
}

// NewSession binds the protocol handlers for one admitted connection
func NewSession(user models.UserResponse, registry *Registry, users UserFinder, messages MessageStore, convs ConversationStore, log *zap.Logger) *Session {
	return &Session{
		User:     user,
		registry: registry,
		users:    users,
		messages: messages,
		convs:    convs,
		log:      log.With(zap.String("userId", user.ID)),
	}
}

// SendResult distinguishes "persisted" from "delivered": the message is
// always durably stored on success, while Delivered only reports whether a
// live receiver got the push.
type SendResult struct {
	Message        models.MessageWithSender
	ConversationID string
	Delivered      bool
}

// Send persists a message to the receiver, advances the conversation index,
// and best-effort pushes message:receive to the receiver's live connection.
// Success means stored, not delivered.
func (s *Session) Send(ctx context.Context, in SendPayload) (*SendResult, error) {
	content := strings.TrimSpace(in.Content)
	if in.ReceiverID == "" || content == "" {
		return nil, validationErr("Receiver ID and content are required")
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidType(msgType) {
		return nil, validationErr("Invalid message type. Must be text, image, or file")
	}
	fileURL := in.FileURL
	if msgType == models.MessageTypeText {
		fileURL = nil
	}

	receiver, err := s.users.FindByID(ctx, in.ReceiverID)
	if err != nil {
		s.log.Error("receiver lookup failed", zap.Error(err))
		return nil, internalErr()
	}
	if receiver == nil {
		return nil, notFoundErr("Receiver not found")
	}

	key := NewPairKey(s.User.ID, in.ReceiverID)
	if _, err := s.convs.FindOrCreate(ctx, key); err != nil {
		s.log.Error("conversation find-or-create failed", zap.Error(err))
		return nil, internalErr()
	}

	msg := &models.Message{
		ConversationKey: key.String(),
		SenderID:        s.User.ID,
		ReceiverID:      in.ReceiverID,
		Content:         content,
		Type:            msgType,
		FileURL:         fileURL,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		s.log.Error("message insert failed", zap.Error(err))
		return nil, internalErr()
	}

	if err := s.convs.ApplySend(ctx, key, msg.ID, msg.CreatedAt, in.ReceiverID); err != nil {
		s.log.Error("conversation index update failed", zap.Error(err))
		return nil, internalErr()
	}

	full := msg.WithSender(s.User)
	delivered := s.registry.PushTo(in.ReceiverID, NewEvent(EventMessageReceive, ReceivePayload{
		Message:        full,
		ConversationID: key.String(),
	}))

	return &SendResult{Message: full, ConversationID: key.String(), Delivered: delivered}, nil
}

// ReadResult reports which message ids were actually flipped and whether the
// other participant was notified
type ReadResult struct {
	Updated  []string
	Notified bool
}

// MarkRead bulk-flips read state on the given ids where the acting user is
// the receiver. Ids already read or addressed to someone else are silently
// skipped. When a pair conversation id is supplied, the acting user's unread
// counter is zeroed and the peer is told which ids were read.
func (s *Session) MarkRead(ctx context.Context, in ReadPayload) (*ReadResult, error) {
	if len(in.MessageIDs) == 0 {
		return nil, validationErr("Message IDs are required")
	}

	updated, err := s.messages.MarkRead(ctx, s.User.ID, in.MessageIDs, time.Now())
	if err != nil {
		s.log.Error("bulk read-mark failed", zap.Error(err))
		return nil, internalErr()
	}

	result := &ReadResult{Updated: updated}
	if in.ConversationID == "" {
		return result, nil
	}

	key, err := ParseKey(in.ConversationID)
	if err != nil {
		return result, nil
	}
	pair, ok := key.(PairKey)
	if !ok || !pair.Has(s.User.ID) {
		return result, nil
	}

	if err := s.convs.ResetUnread(ctx, pair, s.User.ID); err != nil {
		s.log.Warn("unread reset failed", zap.String("conversationId", in.ConversationID), zap.Error(err))
	}

	if other, ok := pair.Other(s.User.ID); ok && len(updated) > 0 {
		result.Notified = s.registry.PushTo(other, NewEvent(EventMessageRead, ReadReceiptPayload{
			MessageIDs: updated,
			ReadBy:     s.User.ID,
		}))
	}

	return result, nil
}

// Typing forwards an ephemeral typing indicator to the receiver, if present.
// Fire and forget: no persistence, no ack. Clients self-expire a start
// signal that never gets its stop.
func (s *Session) Typing(receiverID string, start bool) {
	if receiverID == "" {
		return
	}
	if start {
		s.registry.PushTo(receiverID, NewEvent(EventTypingStart, TypingPayload{
			UserID:   s.User.ID,
			UserName: s.User.Name,
		}))
		return
	}
	s.registry.PushTo(receiverID, NewEvent(EventTypingStop, TypingPayload{UserID: s.User.ID}))
}

// OnlineUsers returns the presence snapshot
func (s *Session) OnlineUsers() []string {
	return s.registry.Online()
}
