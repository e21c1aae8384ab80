package store

import (
	"context"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Messages is the durable message store
type Messages struct {
	pool *pgxpool.Pool
}

func NewMessages(pool *pgxpool.Pool) *Messages {
	return &Messages{pool: pool}
}

// Insert persists a message and fills in its server-assigned id and
// creation time
func (s *Messages) Insert(ctx context.Context, m *models.Message) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_key, sender_id, receiver_id, content, type, file_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, m.ConversationKey, m.SenderID, m.ReceiverID, m.Content, m.Type, m.FileURL).
		Scan(&m.ID, &m.CreatedAt)
}

// MarkRead flips read state on the ids addressed to receiverID that are
// still unread, in one statement, and returns the ids actually flipped.
// Ids already read or belonging to someone else are left untouched.
func (s *Messages) MarkRead(ctx context.Context, receiverID string, ids []string, at time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE messages SET read = true, read_at = $1
		WHERE receiver_id = $2 AND id = ANY($3) AND read = false
		RETURNING id
	`, at, receiverID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

// MarkConversationRead flips every unread message addressed to receiverID in
// one conversation. Used by the booking-scoped path where fetching is the
// read acknowledgement.
func (s *Messages) MarkConversationRead(ctx context.Context, key chat.Key, receiverID string, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET read = true, read_at = $1
		WHERE conversation_key = $2 AND receiver_id = $3 AND read = false
	`, at, key.String(), receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByKey returns one page of a conversation's messages in chronological
// order, with sender profiles, plus the total count.
func (s *Messages) ListByKey(ctx context.Context, key chat.Key, page, limit int) ([]models.MessageWithSender, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE conversation_key = $1
	`, key.String()).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := s.pool.Query(ctx, `
		SELECT
			m.id, m.conversation_key, m.sender_id, m.receiver_id, m.content, m.type, m.file_url,
			m.read, m.read_at, m.created_at,
			u.id, u.email, u.name, u.avatar, u.role, u.is_online
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_key = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, key.String(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages, err := scanMessagesWithSender(rows)
	if err != nil {
		return nil, 0, err
	}

	// page was fetched newest-first; flip to chronological
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// Delete removes a message for good. Only the sender may delete; returns
// false when the id does not resolve to a message owned by senderID.
func (s *Messages) Delete(ctx context.Context, id, senderID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM messages WHERE id = $1 AND sender_id = $2
	`, id, senderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Search finds messages in the caller's own conversations whose content
// contains the query, newest first, optionally scoped to one conversation.
func (s *Messages) Search(ctx context.Context, userID, query, conversationKey string) ([]models.MessageWithSender, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			m.id, m.conversation_key, m.sender_id, m.receiver_id, m.content, m.type, m.file_url,
			m.read, m.read_at, m.created_at,
			u.id, u.email, u.name, u.avatar, u.role, u.is_online
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE (m.sender_id = $1 OR m.receiver_id = $1)
		  AND m.content ILIKE '%' || $2 || '%'
		  AND ($3 = '' OR m.conversation_key = $3)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT 50
	`, userID, query, conversationKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesWithSender(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessagesWithSender(rows pgxRows) ([]models.MessageWithSender, error) {
	messages := []models.MessageWithSender{}
	for rows.Next() {
		var m models.Message
		var sender models.UserResponse
		err := rows.Scan(
			&m.ID, &m.ConversationKey, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &m.FileURL,
			&m.Read, &m.ReadAt, &m.CreatedAt,
			&sender.ID, &sender.Email, &sender.Name, &sender.Avatar, &sender.Role, &sender.IsOnline,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m.WithSender(sender))
	}
	return messages, rows.Err()
}
