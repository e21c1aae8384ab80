package models

import "time"

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Message represents a chat message
type Message struct {
	ID              string     `json:"id" db:"id"`
	ConversationKey string     `json:"conversationId" db:"conversation_key"`
	SenderID        string     `json:"senderId" db:"sender_id"`
	ReceiverID      string     `json:"receiverId" db:"receiver_id"`
	Content         string     `json:"content" db:"content"`
	Type            string     `json:"type" db:"type"` // 'text', 'image', 'file'
	FileURL         *string    `json:"fileUrl,omitempty" db:"file_url"`
	Read            bool       `json:"read" db:"read"`
	ReadAt          *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// MessageWithSender includes the sender's profile so receiving clients can
// render without an extra lookup
type MessageWithSender struct {
	ID              string       `json:"id"`
	ConversationKey string       `json:"conversationId"`
	Sender          UserResponse `json:"sender"`
	ReceiverID      string       `json:"receiverId"`
	Content         string       `json:"content"`
	Type            string       `json:"type"`
	FileURL         *string      `json:"fileUrl,omitempty"`
	Read            bool         `json:"read"`
	ReadAt          *time.Time   `json:"readAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// WithSender attaches a sender profile to a message
func (m *Message) WithSender(sender UserResponse) MessageWithSender {
	return MessageWithSender{
		ID:              m.ID,
		ConversationKey: m.ConversationKey,
		Sender:          sender,
		ReceiverID:      m.ReceiverID,
		Content:         m.Content,
		Type:            m.Type,
		FileURL:         m.FileURL,
		Read:            m.Read,
		ReadAt:          m.ReadAt,
		CreatedAt:       m.CreatedAt,
	}
}

// ValidType reports whether t is a known message type
func ValidType(t string) bool {
	return t == MessageTypeText || t == MessageTypeImage || t == MessageTypeFile
}
