package store

import (
	"context"
	"errors"
	"time"

	"jasaku/server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Users reads and updates the mirrored users table
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// FindByID returns the user, or (nil, nil) when no such user exists
func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, avatar, role, is_online, last_seen, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.IsOnline, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetOnline records a presence transition. Guest identities have no row;
// updating them affects nothing, which is fine.
func (s *Users) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET is_online = $1, last_seen = $2, updated_at = $2 WHERE id = $3
	`, online, at, id)
	return err
}
