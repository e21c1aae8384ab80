package handlers

import (
	"net/http"
	"testing"
	"time"

	"jasaku/server/internal/chat"
	"jasaku/server/internal/middleware"
	"jasaku/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type bookingFixture struct {
	app      *fiber.App
	messages *fakeMessageIndex
	notifier *fakeNotifier
	booking  *models.Booking
}

func newBookingFixture(status string) *bookingFixture {
	users := map[string]*models.User{
		"cust":   {ID: "cust", Name: "Carla", Role: models.RoleCustomer},
		"worker": {ID: "worker", Name: "Wahyu", Role: models.RoleWorker},
	}
	booking := &models.Booking{
		ID:          "bk1",
		CustomerID:  "cust",
		WorkerID:    "worker",
		Service:     "Plumbing",
		Status:      status,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	}

	messages := newFakeMessageIndex(users)
	notifier := newFakeNotifier()
	h := NewBookingChatHandler(
		&fakeBookingIndex{bookings: map[string]*models.Booking{"bk1": booking}},
		messages,
		&fakeUserFinder{users: users},
		notifier,
		zap.NewNop(),
	)

	app := fiber.New()
	group := app.Group("/api/v1/bookings", middleware.AuthMiddleware)
	group.Get("/:bookingId/messages", h.GetMessages)
	group.Post("/:bookingId/messages", h.PostMessage)

	return &bookingFixture{app: app, messages: messages, notifier: notifier, booking: booking}
}

func TestBookingChatRejectedBeforeAcceptance(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusPending)
	token := signTestToken("worker", "Wahyu")

	req := authedRequest(http.MethodPost, "/api/v1/bookings/bk1/messages", token, fiber.Map{"content": "hi"})
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decodeBody(resp)
	if body["error"] != "Chat is only available for accepted bookings" {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if fx.messages.count() != 0 {
		t.Fatal("no row may be written on a rejected precondition")
	}
}

func TestBookingChatStrangerForbidden(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusAccepted)
	token := signTestToken("mallory", "Mallory")

	req := authedRequest(http.MethodPost, "/api/v1/bookings/bk1/messages", token, fiber.Map{"content": "hi"})
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if fx.messages.count() != 0 {
		t.Fatal("stranger post must not persist")
	}
}

func TestBookingChatUnknownBooking(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusAccepted)
	token := signTestToken("cust", "Carla")

	req := authedRequest(http.MethodGet, "/api/v1/bookings/nope/messages", token, nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestBookingChatEmptyContent(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusAccepted)
	token := signTestToken("cust", "Carla")

	req := authedRequest(http.MethodPost, "/api/v1/bookings/bk1/messages", token, fiber.Map{"content": "   "})
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookingChatPostPersistsAndNotifies(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusAccepted)
	token := signTestToken("cust", "Carla")

	req := authedRequest(http.MethodPost, "/api/v1/bookings/bk1/messages", token, fiber.Map{"content": "on my way"})
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	stored := fx.messages.all()
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(stored))
	}
	if stored[0].ConversationKey != "booking_bk1" {
		t.Fatalf("expected booking-scoped key, got %q", stored[0].ConversationKey)
	}
	if stored[0].ReceiverID != "worker" {
		t.Fatalf("expected receiver worker, got %q", stored[0].ReceiverID)
	}

	// the REST path converges on the same fan-out as the socket path
	events := fx.notifier.eventsFor("worker")
	if len(events) != 1 || events[0].Type != chat.EventMessageReceive {
		t.Fatalf("expected message:receive push to worker, got %v", events)
	}
	payload := events[0].Payload.(chat.ReceivePayload)
	if payload.Message.Sender.Name != "Carla" {
		t.Fatalf("expected sender profile Carla, got %q", payload.Message.Sender.Name)
	}
}

// Fetching the booking stream is itself the read acknowledgement
func TestBookingChatListMarksRead(t *testing.T) {
	fx := newBookingFixture(models.BookingStatusAccepted)
	custToken := signTestToken("cust", "Carla")
	workerToken := signTestToken("worker", "Wahyu")

	for _, content := range []string{"one", "two", "three"} {
		req := authedRequest(http.MethodPost, "/api/v1/bookings/bk1/messages", custToken, fiber.Map{"content": content})
		if resp, err := fx.app.Test(req); err != nil || resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed post failed: %v", err)
		}
	}

	req := authedRequest(http.MethodGet, "/api/v1/bookings/bk1/messages", workerToken, nil)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(resp)
	data := body["data"].(map[string]any)
	listed := data["messages"].([]any)
	if len(listed) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(listed))
	}
	contents := make([]string, 0, 3)
	for _, item := range listed {
		contents = append(contents, item.(map[string]any)["content"].(string))
	}
	for i, want := range []string{"one", "two", "three"} {
		if contents[i] != want {
			t.Fatalf("expected chronological order, got %v", contents)
		}
	}

	for _, m := range fx.messages.all() {
		if m.ReceiverID == "worker" && !m.Read {
			t.Fatal("listing must mark the caller's messages read")
		}
	}
}
