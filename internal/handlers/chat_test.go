package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"jasaku/server/internal/middleware"
	"jasaku/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type chatFixture struct {
	app      *fiber.App
	messages *fakeMessageIndex
	convs    *fakeConversationIndex
}

func newChatFixture() *chatFixture {
	users := map[string]*models.User{
		"alice": {ID: "alice", Name: "alice", Role: models.RoleCustomer},
		"bob":   {ID: "bob", Name: "bob", Role: models.RoleWorker},
	}
	messages := newFakeMessageIndex(users)
	convs := &fakeConversationIndex{
		summaries: map[string][]models.ConversationSummary{},
		unread:    map[string]int{},
	}
	h := NewChatHandler(convs, messages, zap.NewNop())

	app := fiber.New()
	group := app.Group("/api/v1/chat", middleware.AuthMiddleware)
	group.Get("/conversations", h.GetConversations)
	group.Get("/messages/:otherUserId", h.GetMessages)
	group.Get("/unread-count", h.GetUnreadCount)
	group.Delete("/messages/:messageId", h.DeleteMessage)
	group.Get("/search", h.SearchMessages)

	return &chatFixture{app: app, messages: messages, convs: convs}
}

func TestChatRequiresAuth(t *testing.T) {
	fx := newChatFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/conversations", nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestGetConversations(t *testing.T) {
	fx := newChatFixture()
	fx.convs.summaries["alice"] = []models.ConversationSummary{
		{ID: "alice_bob", Peer: models.UserResponse{ID: "bob", Name: "bob"}, UnreadCount: 2},
	}

	req := authedRequest(http.MethodGet, "/api/v1/chat/conversations", signTestToken("alice", "alice"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(resp)
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["id"] != "alice_bob" || first["unreadCount"] != float64(2) {
		t.Fatalf("unexpected summary %v", first)
	}
}

func TestGetMessagesHistoryOrder(t *testing.T) {
	fx := newChatFixture()
	for _, content := range []string{"first", "second", "third"} {
		fx.messages.Insert(context.Background(), &models.Message{
			ConversationKey: "alice_bob",
			SenderID:        "alice",
			ReceiverID:      "bob",
			Content:         content,
		})
	}

	req := authedRequest(http.MethodGet, "/api/v1/chat/messages/bob", signTestToken("alice", "alice"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(resp)
	data := body["data"].(map[string]any)
	listed := data["messages"].([]any)
	if len(listed) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(listed))
	}
	if listed[0].(map[string]any)["content"] != "first" {
		t.Fatal("history must be chronological")
	}
	pagination := data["pagination"].(map[string]any)
	if pagination["total"] != float64(3) {
		t.Fatalf("unexpected total %v", pagination["total"])
	}

	// the pair-based path never marks read on fetch
	for _, m := range fx.messages.all() {
		if m.Read {
			t.Fatal("history fetch must not flip read state")
		}
	}
}

func TestGetUnreadCount(t *testing.T) {
	fx := newChatFixture()
	fx.convs.unread["alice"] = 5

	req := authedRequest(http.MethodGet, "/api/v1/chat/unread-count", signTestToken("alice", "alice"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(resp)
	data := body["data"].(map[string]any)
	if data["unreadCount"] != float64(5) {
		t.Fatalf("expected 5, got %v", data["unreadCount"])
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	fx := newChatFixture()
	m := &models.Message{ConversationKey: "alice_bob", SenderID: "alice", ReceiverID: "bob", Content: "oops"}
	fx.messages.Insert(context.Background(), m)

	// bob is not the sender
	req := authedRequest(http.MethodDelete, "/api/v1/chat/messages/"+m.ID, signTestToken("bob", "bob"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for non-sender, got %d", resp.StatusCode)
	}
	if fx.messages.count() != 1 {
		t.Fatal("message must survive a non-sender delete")
	}

	// the sender may hard-delete
	req = authedRequest(http.MethodDelete, "/api/v1/chat/messages/"+m.ID, signTestToken("alice", "alice"), nil)
	resp, err = fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if fx.messages.count() != 0 {
		t.Fatal("expected hard delete")
	}
}

func TestSearchMessages(t *testing.T) {
	fx := newChatFixture()
	fx.messages.Insert(context.Background(), &models.Message{
		ConversationKey: "alice_bob", SenderID: "alice", ReceiverID: "bob", Content: "meet at noon",
	})
	fx.messages.Insert(context.Background(), &models.Message{
		ConversationKey: "alice_bob", SenderID: "bob", ReceiverID: "alice", Content: "sounds good",
	})

	req := authedRequest(http.MethodGet, "/api/v1/chat/search?query=noon", signTestToken("alice", "alice"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(resp)
	data := body["data"].(map[string]any)
	found := data["messages"].([]any)
	if len(found) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(found))
	}
	if found[0].(map[string]any)["content"] != "meet at noon" {
		t.Fatalf("unexpected hit %v", found[0])
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	fx := newChatFixture()

	req := authedRequest(http.MethodGet, "/api/v1/chat/search", signTestToken("alice", "alice"), nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
