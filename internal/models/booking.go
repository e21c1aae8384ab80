package models

import "time"

// Booking statuses. The booking state machine itself is owned by the booking
// service; chat only cares whether a booking has reached 'accepted'.
const (
	BookingStatusPending    = "pending"
	BookingStatusAccepted   = "accepted"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusRejected   = "rejected"
	BookingStatusCancelled  = "cancelled"
)

// Booking represents a service booking between a customer and a worker
type Booking struct {
	ID          string    `json:"id" db:"id"`
	CustomerID  string    `json:"customerId" db:"customer_id"`
	WorkerID    string    `json:"workerId" db:"worker_id"`
	Service     string    `json:"service" db:"service"`
	Status      string    `json:"status" db:"status"`
	ScheduledAt time.Time `json:"scheduledAt" db:"scheduled_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// HasParty reports whether userID is the customer or the worker
func (b *Booking) HasParty(userID string) bool {
	return b.CustomerID == userID || b.WorkerID == userID
}

// OtherParty returns the counterpart of userID on this booking
func (b *Booking) OtherParty(userID string) string {
	if b.CustomerID == userID {
		return b.WorkerID
	}
	return b.CustomerID
}

// ChatEligible reports whether chat is open for this booking. Chat unlocks
// once a booking is accepted and stays open afterwards.
func (b *Booking) ChatEligible() bool {
	switch b.Status {
	case BookingStatusAccepted, BookingStatusInProgress, BookingStatusCompleted:
		return true
	}
	return false
}
