package store

import (
	"context"
	"errors"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conversations is the per-pair summary index. The key column is the
// canonical sorted-pair string, so the primary key is what guards
// find-or-create against concurrent first contact.
type Conversations struct {
	pool *pgxpool.Pool
}

func NewConversations(pool *pgxpool.Pool) *Conversations {
	return &Conversations{pool: pool}
}

const conversationColumns = `key, participant_a, participant_b, last_message_id, last_message_at, unread_a, unread_b, created_at, updated_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.Key, &c.ParticipantA, &c.ParticipantB, &c.LastMessageID, &c.LastMessageAt,
		&c.UnreadA, &c.UnreadB, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindOrCreate returns the conversation for the pair, creating it if absent.
// ON CONFLICT DO NOTHING makes concurrent first contact from both ends
// converge on a single row.
func (s *Conversations) FindOrCreate(ctx context.Context, key chat.PairKey) (*models.Conversation, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (key, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, key.String(), key.A, key.B)
	if err != nil {
		return nil, err
	}

	return scanConversation(s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE key = $1
	`, key.String()))
}

// Get returns the conversation, or (nil, nil) when it does not exist
func (s *Conversations) Get(ctx context.Context, key chat.PairKey) (*models.Conversation, error) {
	return scanConversation(s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE key = $1
	`, key.String()))
}

// ApplySend advances the last-message pointer and increments the receiver's
// unread counter in one atomic statement. The increment happens in SQL, not
// read-modify-write in Go, so concurrent sends cannot lose counts; the
// pointer only moves forward in time.
func (s *Conversations) ApplySend(ctx context.Context, key chat.PairKey, messageID string, at time.Time, receiverID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations SET
			last_message_id = CASE WHEN last_message_at IS NULL OR last_message_at <= $3 THEN $2 ELSE last_message_id END,
			last_message_at = GREATEST(COALESCE(last_message_at, $3), $3),
			unread_a = unread_a + CASE WHEN participant_a = $4 THEN 1 ELSE 0 END,
			unread_b = unread_b + CASE WHEN participant_b = $4 THEN 1 ELSE 0 END,
			updated_at = NOW()
		WHERE key = $1
	`, key.String(), messageID, at, receiverID)
	return err
}

// ResetUnread zeroes userID's own counter. A no-op when the conversation
// does not exist or userID is not a participant.
func (s *Conversations) ResetUnread(ctx context.Context, key chat.PairKey, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations SET
			unread_a = CASE WHEN participant_a = $2 THEN 0 ELSE unread_a END,
			unread_b = CASE WHEN participant_b = $2 THEN 0 ELSE unread_b END,
			updated_at = NOW()
		WHERE key = $1
	`, key.String(), userID)
	return err
}

// ListForUser returns the caller's conversation summaries, most recent
// activity first, each with the peer's profile and last message.
func (s *Conversations) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			c.key,
			CASE WHEN c.participant_a = $1 THEN c.unread_a ELSE c.unread_b END AS unread,
			c.updated_at,
			u.id, u.email, u.name, u.avatar, u.role, u.is_online,
			m.id, m.conversation_key, m.sender_id, m.receiver_id, m.content, m.type, m.file_url,
			m.read, m.read_at, m.created_at
		FROM conversations c
		INNER JOIN users u
			ON u.id = CASE WHEN c.participant_a = $1 THEN c.participant_b ELSE c.participant_a END
		LEFT JOIN messages m ON m.id = c.last_message_id
		WHERE c.participant_a = $1 OR c.participant_b = $1
		ORDER BY c.last_message_at DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	for rows.Next() {
		var sum models.ConversationSummary
		var peer models.UserResponse
		var mID, mKey, mSender, mReceiver, mContent, mType *string
		var mFileURL *string
		var mRead *bool
		var mReadAt, mCreatedAt *time.Time

		err := rows.Scan(
			&sum.ID, &sum.UnreadCount, &sum.UpdatedAt,
			&peer.ID, &peer.Email, &peer.Name, &peer.Avatar, &peer.Role, &peer.IsOnline,
			&mID, &mKey, &mSender, &mReceiver, &mContent, &mType, &mFileURL,
			&mRead, &mReadAt, &mCreatedAt,
		)
		if err != nil {
			return nil, err
		}

		sum.Peer = peer
		if mID != nil {
			sum.LastMessage = &models.Message{
				ID:              *mID,
				ConversationKey: *mKey,
				SenderID:        *mSender,
				ReceiverID:      *mReceiver,
				Content:         *mContent,
				Type:            *mType,
				FileURL:         mFileURL,
				Read:            *mRead,
				ReadAt:          mReadAt,
				CreatedAt:       *mCreatedAt,
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// TotalUnread sums the caller's unread counters across all conversations
func (s *Conversations) TotalUnread(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN participant_a = $1 THEN unread_a
			WHEN participant_b = $1 THEN unread_b
			ELSE 0
		END), 0)
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
	`, userID).Scan(&total)
	return total, err
}
