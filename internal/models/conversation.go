package models

import "time"

// Conversation is the per-pair summary record backing the chat list and
// unread counters. Participants are stored sorted (A < B) so one record
// exists per unordered pair.
type Conversation struct {
	Key           string     `json:"id" db:"key"`
	ParticipantA  string     `json:"-" db:"participant_a"`
	ParticipantB  string     `json:"-" db:"participant_b"`
	LastMessageID *string    `json:"lastMessageId,omitempty" db:"last_message_id"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
	UnreadA       int        `json:"-" db:"unread_a"`
	UnreadB       int        `json:"-" db:"unread_b"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Participants returns both participant IDs
func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether userID is one of the two participants
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other returns the participant that is not userID
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// UnreadFor returns the unread counter belonging to userID
func (c *Conversation) UnreadFor(userID string) int {
	if c.ParticipantA == userID {
		return c.UnreadA
	}
	if c.ParticipantB == userID {
		return c.UnreadB
	}
	return 0
}

// ConversationSummary is a chat-list entry: the peer's profile plus the
// last message and the caller's unread count
type ConversationSummary struct {
	ID          string       `json:"id"`
	Peer        UserResponse `json:"peer"`
	LastMessage *Message     `json:"lastMessage,omitempty"`
	UnreadCount int          `json:"unreadCount"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
