package storage

import (
	"testing"
	"time"

	"SupportBot/internal/constants"
	"SupportBot/internal/models"
)

func newTicket(chatID int64, category string) models.Ticket {
	return models.Ticket{
		ChatID:    chatID,
		Username:  "user",
		FirstName: "Test",
		LastName:  "User",
		Category:  category,
		Active:    true,
	}
}

func TestMemoryStoreUpsertAndGet(t *testing.T) {
	store := NewMemoryStore()

	if err := store.UpsertTicket(newTicket(100, constants.CAT_WALLET)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, found, err := store.GetTicket(100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("ticket not found after upsert")
	}
	if got.Category != constants.CAT_WALLET {
		t.Errorf("expected category %s, got %s", constants.CAT_WALLET, got.Category)
	}
	if !got.Active {
		t.Error("expected ticket to be active")
	}
	if got.ConversationID == "" {
		t.Error("expected conversation id to be assigned")
	}
	if got.ClosedAt != nil {
		t.Error("active ticket must not have closed_at")
	}
}

func TestMemoryStoreUpsertPreservesHistory(t *testing.T) {
	store := NewMemoryStore()

	if err := store.UpsertTicket(newTicket(100, constants.CAT_WALLET)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.AppendMessage(100, "first", constants.SENDER_USER); err != nil {
		t.Fatalf("append: %v", err)
	}
	first, _, _ := store.GetTicket(100)

	// Повторное создание тикета тем же пользователем: профиль и категория
	// перезаписываются, история и conversation_id сохраняются.
	if err := store.UpsertTicket(newTicket(100, constants.CAT_DEPOSIT)); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, _, _ := store.GetTicket(100)
	if got.Category != constants.CAT_DEPOSIT {
		t.Errorf("expected category %s, got %s", constants.CAT_DEPOSIT, got.Category)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "first" {
		t.Errorf("expected history to survive re-upsert, got %v", got.Messages)
	}
	if got.ConversationID != first.ConversationID {
		t.Error("conversation id must not change on re-upsert")
	}
}

func TestMemoryStoreAppendMessage(t *testing.T) {
	store := NewMemoryStore()
	if err := store.UpsertTicket(newTicket(100, constants.CAT_OTHER)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.AppendMessage(100, "abc123", constants.SENDER_USER); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendMessage(100, "frozen", constants.SENDER_USER); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendMessage(100, "on it", constants.SENDER_ADMIN); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _, _ := store.GetTicket(100)
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Text != "abc123" || got.Messages[1].Text != "frozen" {
		t.Errorf("messages out of order: %v", got.Messages)
	}
	if got.Messages[2].From != constants.SENDER_ADMIN {
		t.Errorf("expected admin sender, got %s", got.Messages[2].From)
	}
}

func TestMemoryStoreAppendMessageNoTicket(t *testing.T) {
	store := NewMemoryStore()

	// Запись в несуществующий тикет - тихий no-op.
	if err := store.AppendMessage(999, "lost", constants.SENDER_USER); err != nil {
		t.Fatalf("append to missing ticket must not error: %v", err)
	}
	if _, found, _ := store.GetTicket(999); found {
		t.Error("append must not create a ticket")
	}
}

func TestMemoryStoreCloseTicket(t *testing.T) {
	store := NewMemoryStore()
	if err := store.UpsertTicket(newTicket(100, constants.CAT_WALLET)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.CloseTicket(100); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _, _ := store.GetTicket(100)
	if got.Active {
		t.Error("expected ticket to be inactive after close")
	}
	if got.ClosedAt == nil {
		t.Fatal("expected closed_at to be set")
	}
	closedAt := *got.ClosedAt

	// Повторное закрытие идемпотентно: closed_at не меняется.
	time.Sleep(5 * time.Millisecond)
	if err := store.CloseTicket(100); err != nil {
		t.Fatalf("second close: %v", err)
	}
	got, _, _ = store.GetTicket(100)
	if got.ClosedAt == nil || !got.ClosedAt.Equal(closedAt) {
		t.Error("closed_at must not change on repeated close")
	}

	// Закрытие несуществующего тикета - no-op.
	if err := store.CloseTicket(999); err != nil {
		t.Fatalf("close of missing ticket must not error: %v", err)
	}
}

func TestMemoryStoreReopenClearsClosedAt(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertTicket(newTicket(100, constants.CAT_WALLET))
	store.CloseTicket(100)

	if err := store.UpsertTicket(newTicket(100, constants.CAT_WALLET)); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _, _ := store.GetTicket(100)
	if !got.Active {
		t.Error("expected ticket to be active after reopen")
	}
	if got.ClosedAt != nil {
		t.Error("closed_at must be cleared on reopen")
	}
}

func TestMemoryStoreUpsertInactiveSetsClosedAt(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertTicket(newTicket(100, constants.CAT_WALLET))

	// Деактивация через upsert должна вести себя как закрытие:
	// closed_at заполнен ровно тогда, когда тикет неактивен.
	inactive := newTicket(100, constants.CAT_WALLET)
	inactive.Active = false
	if err := store.UpsertTicket(inactive); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ := store.GetTicket(100)
	if got.Active {
		t.Error("expected ticket to be inactive")
	}
	if got.ClosedAt == nil {
		t.Error("inactive ticket must have closed_at set")
	}

	// Вставка сразу неактивного тикета тоже получает closed_at.
	fresh := newTicket(200, constants.CAT_OTHER)
	fresh.Active = false
	if err := store.UpsertTicket(fresh); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ = store.GetTicket(200)
	if got.ClosedAt == nil {
		t.Error("inactive insert must have closed_at set")
	}
}

func TestMemoryStoreListActiveTickets(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertTicket(newTicket(1, constants.CAT_WALLET))
	time.Sleep(5 * time.Millisecond)
	store.UpsertTicket(newTicket(2, constants.CAT_DEPOSIT))
	time.Sleep(5 * time.Millisecond)
	store.UpsertTicket(newTicket(3, constants.CAT_OTHER))
	store.CloseTicket(2)

	list, err := store.ListActiveTickets()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 active tickets, got %d", len(list))
	}
	// last_updated по убыванию
	if list[0].ChatID != 3 || list[1].ChatID != 1 {
		t.Errorf("expected order [3 1], got [%d %d]", list[0].ChatID, list[1].ChatID)
	}
}

func TestMemoryStoreSearchTickets(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertTicket(models.Ticket{ChatID: 100, FirstName: "Alice", Username: "wonder", Category: constants.CAT_WALLET, Active: true})
	store.UpsertTicket(models.Ticket{ChatID: 200, FirstName: "Bob", Username: "builder", Category: constants.CAT_OTHER, Active: true})

	byID, err := store.SearchTickets("200")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byID) != 1 || byID[0].ChatID != 200 {
		t.Errorf("numeric search should match exact chat id, got %v", byID)
	}

	byName, _ := store.SearchTickets("ali")
	if len(byName) != 1 || byName[0].ChatID != 100 {
		t.Errorf("name search should be case-insensitive substring, got %v", byName)
	}

	byUsername, _ := store.SearchTickets("BUILD")
	if len(byUsername) != 1 || byUsername[0].ChatID != 200 {
		t.Errorf("username search should be case-insensitive, got %v", byUsername)
	}

	none, _ := store.SearchTickets("zzz")
	if len(none) != 0 {
		t.Errorf("expected no results, got %v", none)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertUser(1, "A", "", "a")
	store.UpsertUser(2, "B", "", "b")
	store.UpsertUser(3, "C", "", "c")
	store.UpsertTicket(newTicket(1, constants.CAT_WALLET))
	store.UpsertTicket(newTicket(2, constants.CAT_WALLET))
	store.UpsertTicket(newTicket(3, constants.CAT_OTHER))
	store.CloseTicket(3)

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 3 {
		t.Errorf("expected 3 users, got %d", stats.TotalUsers)
	}
	if stats.TotalTickets != 3 || stats.ActiveTickets != 2 || stats.ClosedTickets != 1 {
		t.Errorf("unexpected ticket counts: %+v", stats)
	}
	// Разбивка по категориям считается только по активным тикетам.
	if stats.ByCategory[constants.CAT_WALLET] != 2 {
		t.Errorf("unexpected category breakdown: %v", stats.ByCategory)
	}
	if _, ok := stats.ByCategory[constants.CAT_OTHER]; ok {
		t.Errorf("closed ticket must not appear in category breakdown: %v", stats.ByCategory)
	}
}

func TestMemoryStoreCopySemantics(t *testing.T) {
	store := NewMemoryStore()
	store.UpsertTicket(newTicket(100, constants.CAT_WALLET))
	store.AppendMessage(100, "original", constants.SENDER_USER)

	got, _, _ := store.GetTicket(100)
	got.Messages[0].Text = "mutated"

	again, _, _ := store.GetTicket(100)
	if again.Messages[0].Text != "original" {
		t.Error("GetTicket must return a copy, not shared state")
	}
}
