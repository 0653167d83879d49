package storage

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"SupportBot/internal/models"
)

// MemoryStore - хранилище в памяти процесса. Используется по умолчанию и в тестах.
// Обновления обрабатываются в отдельных горутинах, поэтому карты защищены мьютексом.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	tickets map[int64]*models.Ticket
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]models.User),
		tickets: make(map[int64]*models.Ticket),
	}
}

func (s *MemoryStore) UpsertUser(chatID int64, firstName, lastName, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	u, exists := s.users[chatID]
	if !exists {
		u = models.User{ChatID: chatID, FirstSeen: now}
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Username = username
	u.LastSeen = now
	s.users[chatID] = u
	return nil
}

func (s *MemoryStore) UpsertTicket(t models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing, exists := s.tickets[t.ChatID]
	if !exists {
		t.ConversationID = newConversationID()
		t.CreatedAt = now
		t.LastUpdated = now
		t.ClosedAt = nil
		if !t.Active {
			t.ClosedAt = &now
		}
		t.Messages = []models.TicketMessage{}
		s.tickets[t.ChatID] = &t
		return nil
	}

	// Пересоздание тикета для того же пользователя: профиль перезаписывается,
	// история и идентификатор переписки сохраняются.
	existing.Username = t.Username
	existing.FirstName = t.FirstName
	existing.LastName = t.LastName
	existing.Category = t.Category
	existing.Active = t.Active
	existing.LastUpdated = now
	// Инвариант: closed_at заполнен ровно тогда, когда тикет неактивен.
	if t.Active {
		existing.ClosedAt = nil
	} else if existing.ClosedAt == nil {
		existing.ClosedAt = &now
	}
	return nil
}

func (s *MemoryStore) AppendMessage(chatID int64, text, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tickets[chatID]
	if !exists {
		return nil // тикета нет - тихий no-op
	}
	t.Messages = append(t.Messages, models.TicketMessage{
		Text: text,
		Time: time.Now().Format("15:04:05"),
		From: from,
	})
	t.LastUpdated = time.Now()
	return nil
}

func (s *MemoryStore) GetTicket(chatID int64) (models.Ticket, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tickets[chatID]
	if !exists {
		return models.Ticket{}, false, nil
	}
	return copyTicket(t), true, nil
}

func (s *MemoryStore) ListActiveTickets() ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Ticket
	for _, t := range s.tickets {
		if t.Active {
			result = append(result, copyTicket(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUpdated.After(result[j].LastUpdated)
	})
	return result, nil
}

func (s *MemoryStore) CloseTicket(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tickets[chatID]
	if !exists || !t.Active {
		return nil // уже закрыт или отсутствует - closed_at не трогаем
	}
	now := time.Now()
	t.Active = false
	t.ClosedAt = &now
	t.LastUpdated = now
	return nil
}

func (s *MemoryStore) SearchTickets(term string) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Ticket
	if id, err := strconv.ParseInt(term, 10, 64); err == nil {
		if t, exists := s.tickets[id]; exists {
			result = append(result, copyTicket(t))
		}
		return result, nil
	}

	needle := strings.ToLower(term)
	for _, t := range s.tickets {
		name := strings.ToLower(t.FirstName + " " + t.LastName)
		if strings.Contains(name, needle) || strings.Contains(strings.ToLower(t.Username), needle) {
			result = append(result, copyTicket(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUpdated.After(result[j].LastUpdated)
	})
	return result, nil
}

func (s *MemoryStore) Stats() (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.Stats{
		TotalUsers:   len(s.users),
		TotalTickets: len(s.tickets),
		ByCategory:   make(map[string]int),
	}
	for _, t := range s.tickets {
		if t.Active {
			stats.ActiveTickets++
			stats.ByCategory[t.Category]++
		} else {
			stats.ClosedTickets++
		}
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// copyTicket возвращает копию тикета с собственным срезом сообщений,
// чтобы вызывающий код не мог изменить состояние хранилища.
func copyTicket(t *models.Ticket) models.Ticket {
	cp := *t
	cp.Messages = make([]models.TicketMessage, len(t.Messages))
	copy(cp.Messages, t.Messages)
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		cp.ClosedAt = &closed
	}
	return cp
}
