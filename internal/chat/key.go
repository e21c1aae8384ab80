package chat

import (
	"fmt"
	"strings"
)

// Two conversation-key namespaces coexist: free user-pair threads and
// booking-anchored threads. They are distinct types so one can never be
// matched against the other by accident.

const bookingKeyPrefix = "booking_"

// Key is a conversation key in one of the two namespaces
type Key interface {
	fmt.Stringer
	conversationKey()
}

// PairKey identifies the single thread between an unordered pair of users.
// A and B are always stored sorted so the string form is canonical.
type PairKey struct {
	A, B string
}

// NewPairKey builds the canonical pair key for two user IDs
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

func (k PairKey) String() string {
	return k.A + "_" + k.B
}

// Has reports whether userID is one of the pair
func (k PairKey) Has(userID string) bool {
	return k.A == userID || k.B == userID
}

// Other returns the peer of userID, or false if userID is not in the pair
func (k PairKey) Other(userID string) (string, bool) {
	switch userID {
	case k.A:
		return k.B, true
	case k.B:
		return k.A, true
	}
	return "", false
}

func (PairKey) conversationKey() {}

// BookingKey identifies the message stream attached to a booking
type BookingKey struct {
	BookingID string
}

func (k BookingKey) String() string {
	return bookingKeyPrefix + k.BookingID
}

func (BookingKey) conversationKey() {}

// ParseKey parses a stored conversation key string back into its tagged form
func ParseKey(s string) (Key, error) {
	if id, ok := strings.CutPrefix(s, bookingKeyPrefix); ok {
		if id == "" {
			return nil, fmt.Errorf("invalid booking conversation key %q", s)
		}
		return BookingKey{BookingID: id}, nil
	}
	a, b, ok := strings.Cut(s, "_")
	if !ok || a == "" || b == "" {
		return nil, fmt.Errorf("invalid conversation key %q", s)
	}
	return NewPairKey(a, b), nil
}
