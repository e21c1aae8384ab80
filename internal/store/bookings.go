package store

import (
	"context"
	"errors"

	"jasaku/server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Bookings reads booking records. The booking lifecycle is owned by the
// booking service; chat only needs the parties and the status.
type Bookings struct {
	pool *pgxpool.Pool
}

func NewBookings(pool *pgxpool.Pool) *Bookings {
	return &Bookings{pool: pool}
}

// Get returns the booking, or (nil, nil) when no such booking exists
func (s *Bookings) Get(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, worker_id, service, status, scheduled_at, created_at, updated_at
		FROM bookings WHERE id = $1
	`, id).Scan(&b.ID, &b.CustomerID, &b.WorkerID, &b.Service, &b.Status, &b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
