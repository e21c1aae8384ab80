package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/models"
	"jasaku/server/internal/utils"
)

// In-memory fakes standing in for the pgx stores.

type fakeMessageIndex struct {
	mu   sync.Mutex
	msgs []*models.Message
	seq  int

	users map[string]*models.User // sender profiles for ListByKey/Search
}

func newFakeMessageIndex(users map[string]*models.User) *fakeMessageIndex {
	return &fakeMessageIndex{users: users}
}

func (f *fakeMessageIndex) Insert(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = fmt.Sprintf("m%d", f.seq)
	m.CreatedAt = time.Now()
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMessageIndex) senderProfile(id string) models.UserResponse {
	if u, ok := f.users[id]; ok {
		return u.ToResponse()
	}
	return models.UserResponse{ID: id, Name: id}
}

func (f *fakeMessageIndex) ListByKey(_ context.Context, key chat.Key, page, limit int) ([]models.MessageWithSender, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.Message{}
	for _, m := range f.msgs {
		if m.ConversationKey == key.String() {
			matched = append(matched, m)
		}
	}
	total := len(matched)

	// page counted from the newest end, returned chronological
	end := total - (page-1)*limit
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := []models.MessageWithSender{}
	for _, m := range matched[start:end] {
		out = append(out, m.WithSender(f.senderProfile(m.SenderID)))
	}
	return out, total, nil
}

func (f *fakeMessageIndex) MarkConversationRead(_ context.Context, key chat.Key, receiverID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.ConversationKey == key.String() && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageIndex) Delete(_ context.Context, id, senderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.msgs {
		if m.ID == id && m.SenderID == senderID {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessageIndex) Search(_ context.Context, userID, query, conversationKey string) ([]models.MessageWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.MessageWithSender{}
	for _, m := range f.msgs {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		if conversationKey != "" && m.ConversationKey != conversationKey {
			continue
		}
		if !bytes.Contains([]byte(m.Content), []byte(query)) {
			continue
		}
		out = append(out, m.WithSender(f.senderProfile(m.SenderID)))
	}
	return out, nil
}

func (f *fakeMessageIndex) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeMessageIndex) all() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, *m)
	}
	return out
}

type fakeConversationIndex struct {
	summaries map[string][]models.ConversationSummary
	unread    map[string]int
}

func (f *fakeConversationIndex) ListForUser(_ context.Context, userID string) ([]models.ConversationSummary, error) {
	return f.summaries[userID], nil
}

func (f *fakeConversationIndex) TotalUnread(_ context.Context, userID string) (int, error) {
	return f.unread[userID], nil
}

type fakeBookingIndex struct {
	bookings map[string]*models.Booking
}

func (f *fakeBookingIndex) Get(_ context.Context, id string) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

type fakeUserFinder struct {
	users map[string]*models.User
}

func (f *fakeUserFinder) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushed map[string][]chat.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{pushed: map[string][]chat.Event{}}
}

func (f *fakeNotifier) PushTo(userID string, ev chat.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed[userID] = append(f.pushed[userID], ev)
	return true
}

func (f *fakeNotifier) eventsFor(userID string) []chat.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushed[userID]
}

func signTestToken(userID, name string) string {
	os.Setenv("JWT_SECRET", "testsecret")
	token, _ := utils.GenerateToken(userID, userID+"@example.com", name)
	return token
}

func authedRequest(method, target, token string, body any) *http.Request {
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return out
}
