package models

import "time"

// Ticket represents a support ticket: one per user (keyed by chat_id),
// open or closed, with an append-only message log.
// Тикет хранит снимок профиля пользователя на момент обращения.
type Ticket struct {
	ChatID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Category       string          `json:"category"`
	Active         bool            `json:"active"`
	ConversationID string          `json:"conversation_id"`
	CreatedAt      time.Time       `json:"created_at"`
	LastUpdated    time.Time       `json:"last_updated"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	Messages       []TicketMessage `json:"messages"`
}

// TicketMessage is a single entry in a ticket's message log.
// Записи только добавляются; порядок - порядок вставки.
type TicketMessage struct {
	Text string `json:"text"`
	Time string `json:"time"` // время в формате "15:04:05"
	From string `json:"from"` // "user" или "admin"
}
