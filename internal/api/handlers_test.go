package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"

	"SupportBot/internal/config"
	"SupportBot/internal/constants"
	"SupportBot/internal/models"
	"SupportBot/internal/storage"
)

// fakeSender записывает сообщения, отправленные через бота из API.
type fakeSender struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg.Text)
	}
	return tgbotapi.Message{MessageID: 1}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestServer(t *testing.T, token string) (*httptest.Server, storage.Store, *fakeSender) {
	t.Helper()
	store := storage.NewMemoryStore()
	sender := &fakeSender{}
	router := chi.NewRouter()
	SetupRoutes(router, ApiDependencies{
		Config: &config.Config{DashboardToken: token},
		Store:  store,
		Bot:    sender,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store, sender
}

// decodeBody разбирает «сырой» JSON читающих эндпоинтов.
func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedTicket(t *testing.T, store storage.Store, chatID int64, category string) {
	t.Helper()
	err := store.UpsertTicket(models.Ticket{
		ChatID:    chatID,
		FirstName: "Test",
		Username:  "testuser",
		Category:  category,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if out["status"] != "ok" {
		t.Errorf("unexpected status: %+v", out)
	}
}

func TestGetTicketsFiltersByCategory(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)
	seedTicket(t, store, 200, constants.CAT_OTHER)

	resp, err := http.Get(srv.URL + "/api/tickets?category=" + constants.CAT_WALLET)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var tickets []models.Ticket
	decodeBody(t, resp, &tickets)
	if len(tickets) != 1 || tickets[0].ChatID != 100 {
		t.Errorf("expected only the wallet ticket, got %v", tickets)
	}
}

func TestGetTicketMessages(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)
	store.AppendMessage(100, "abc123", constants.SENDER_USER)

	resp, err := http.Get(srv.URL + "/api/tickets/100/messages")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var msgs []models.TicketMessage
	decodeBody(t, resp, &msgs)
	if len(msgs) != 1 || msgs[0].Text != "abc123" {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestGetTicketMessagesUnknownTicket(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/tickets/999/messages")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	var msgs []models.TicketMessage
	decodeBody(t, resp, &msgs)
	if len(msgs) != 0 {
		t.Errorf("expected empty log for unknown ticket, got %v", msgs)
	}
}

func TestReplyToTicket(t *testing.T) {
	srv, store, sender := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	resp, err := http.Post(srv.URL+"/api/tickets/100/reply", "application/json",
		strings.NewReader(`{"message": "hello from dashboard"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	ticket, _, _ := store.GetTicket(100)
	if len(ticket.Messages) != 1 || ticket.Messages[0].From != constants.SENDER_ADMIN {
		t.Errorf("expected persisted admin reply, got %v", ticket.Messages)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0], "hello from dashboard") {
		t.Errorf("expected delivery through bot, got %v", sender.messages)
	}
}

func TestReplyValidation(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	resp, err := http.Post(srv.URL+"/api/tickets/100/reply", "application/json",
		strings.NewReader(`{"message": "  "}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/tickets/999/reply", "application/json",
		strings.NewReader(`{"message": "hi"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown ticket, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCloseTicketEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	resp, err := http.Post(srv.URL+"/api/tickets/100/close", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	ticket, _, _ := store.GetTicket(100)
	if ticket.Active {
		t.Error("expected ticket closed")
	}

	// Повторное закрытие - тоже успех.
	resp, err = http.Post(srv.URL+"/api/tickets/100/close", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected idempotent 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStatsEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	resp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var stats models.Stats
	decodeBody(t, resp, &stats)
	if stats.TotalTickets != 1 || stats.ActiveTickets != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	resp, err := http.Get(srv.URL + "/api/tickets/export")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("unexpected content disposition: %s", cd)
	}
}

func TestDashboardTokenAuth(t *testing.T) {
	srv, store, _ := newTestServer(t, "secret-token")
	seedTicket(t, store, 100, constants.CAT_WALLET)

	// Без токена - отказ.
	resp, err := http.Get(srv.URL + "/api/tickets")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// С неверным токеном - отказ.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tickets", nil)
	req.Header.Set("X-Dashboard-Token", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// С верным токеном - доступ.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/tickets", nil)
	req.Header.Set("X-Dashboard-Token", "secret-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// /health остается публичным.
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health must stay public, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
