package models

import "time"

// User represents a bot user in the system.
// Пользователь создается/обновляется при каждом входящем взаимодействии и никогда не удаляется.
type User struct {
	ChatID    int64     `json:"chat_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Stats represents statistical data for the admin /stats command and the dashboard.
type Stats struct {
	TotalUsers    int            `json:"total_users"`
	TotalTickets  int            `json:"total_tickets"`
	ActiveTickets int            `json:"active_tickets"`
	ClosedTickets int            `json:"closed_tickets"`
	ByCategory    map[string]int `json:"by_category"`
}
