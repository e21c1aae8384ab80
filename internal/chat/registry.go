package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender is a live connection handle able to receive pushed events.
// Push is best-effort: it reports whether the event was accepted, and a
// refusal never propagates to the party that caused the push.
type Sender interface {
	Push(ev Event) bool
	Close()
}

// PresenceRecorder persists online/offline transitions (the users table)
type PresenceRecorder interface {
	SetOnline(ctx context.Context, userID string, online bool, at time.Time) error
}

// Registry is the process-wide authoritative map from user identity to the
// currently reachable connection. One instance is constructed per process
// and passed into every connection handler; nothing else may touch it.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Sender
	recorder PresenceRecorder
	log      *zap.Logger
}

// NewRegistry creates an empty presence registry. recorder may be nil.
func NewRegistry(recorder PresenceRecorder, log *zap.Logger) *Registry {
	return &Registry{
		clients:  make(map[string]Sender),
		recorder: recorder,
		log:      log,
	}
}

// Register makes s the one reachable handle for userID. Last connected wins:
// a previously registered handle is closed and orphaned. Everyone else
// currently registered is told the user came online.
func (r *Registry) Register(userID string, s Sender) {
	r.mu.Lock()
	displaced := r.clients[userID]
	r.clients[userID] = s
	others := r.othersLocked(userID)
	r.mu.Unlock()

	if displaced != nil {
		displaced.Close()
	}

	r.recordOnline(userID, true)
	r.log.Info("client connected", zap.String("userId", userID))

	ev := NewEvent(EventUserOnline, PresencePayload{UserID: userID})
	for _, peer := range others {
		peer.Push(ev)
	}
}

// Unregister removes the entry for userID, but only if s is still the
// registered handle — a stale handle from reconnect churn cannot evict its
// successor. Unregistering an absent identity is a no-op.
func (r *Registry) Unregister(userID string, s Sender) {
	r.mu.Lock()
	current, ok := r.clients[userID]
	if !ok || current != s {
		r.mu.Unlock()
		return
	}
	delete(r.clients, userID)
	others := r.othersLocked(userID)
	r.mu.Unlock()

	s.Close()

	r.recordOnline(userID, false)
	r.log.Info("client disconnected", zap.String("userId", userID))

	ev := NewEvent(EventUserOffline, PresencePayload{UserID: userID})
	for _, peer := range others {
		peer.Push(ev)
	}
}

// Lookup returns the reachable handle for userID, if any
func (r *Registry) Lookup(userID string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.clients[userID]
	return s, ok
}

// PushTo delivers ev to userID's current handle. Returns false when the
// user is offline or the handle refused the event; callers treat that as a
// normal delivery miss, not an error.
func (r *Registry) PushTo(userID string, ev Event) bool {
	r.mu.RLock()
	s, ok := r.clients[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if !s.Push(ev) {
		r.log.Warn("dropped event for slow client", zap.String("userId", userID), zap.String("event", string(ev.Type)))
		return false
	}
	return true
}

// Online returns a snapshot of currently connected user IDs
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of connected clients
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) othersLocked(userID string) []Sender {
	others := make([]Sender, 0, len(r.clients))
	for id, s := range r.clients {
		if id != userID {
			others = append(others, s)
		}
	}
	return others
}

func (r *Registry) recordOnline(userID string, online bool) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.SetOnline(context.Background(), userID, online, time.Now()); err != nil {
		r.log.Warn("failed to record presence", zap.String("userId", userID), zap.Error(err))
	}
}
