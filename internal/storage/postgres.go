package storage

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"SupportBot/internal/models"
)

// PostgresStore - сетевое реляционное хранилище.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore подключается к PostgreSQL и выполняет миграции.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL не установлена")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}
	log.Println("Успешное подключение к базе данных.")

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS users (
            chat_id BIGINT PRIMARY KEY,
            first_name VARCHAR(100) NOT NULL DEFAULT '',
            last_name VARCHAR(100) NOT NULL DEFAULT '',
            username VARCHAR(100) NOT NULL DEFAULT '',
            first_seen TIMESTAMP NOT NULL,
            last_seen TIMESTAMP NOT NULL
        );
        CREATE TABLE IF NOT EXISTS tickets (
            chat_id BIGINT PRIMARY KEY,
            username VARCHAR(100) NOT NULL DEFAULT '',
            first_name VARCHAR(100) NOT NULL DEFAULT '',
            last_name VARCHAR(100) NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            active BOOLEAN NOT NULL DEFAULT TRUE,
            conversation_id TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL,
            last_updated TIMESTAMP NOT NULL,
            closed_at TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS ticket_messages (
            id SERIAL PRIMARY KEY,
            chat_id BIGINT NOT NULL REFERENCES tickets(chat_id),
            text TEXT NOT NULL,
            time TEXT NOT NULL,
            sender TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_ticket_messages_chat_id ON ticket_messages(chat_id);
        CREATE INDEX IF NOT EXISTS idx_tickets_active ON tickets(active);
        CREATE INDEX IF NOT EXISTS idx_tickets_last_updated ON tickets(last_updated);
    `
	if _, err := s.db.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %w", err)
	}
	log.Println("Создание таблиц (если не существуют) завершено.")
	return nil
}

func (s *PostgresStore) UpsertUser(chatID int64, firstName, lastName, username string) error {
	_, err := s.db.Exec(`
        INSERT INTO users (chat_id, first_name, last_name, username, first_seen, last_seen)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (chat_id) DO UPDATE SET
            first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
            username = EXCLUDED.username, last_seen = NOW()`,
		chatID, firstName, lastName, username)
	if err != nil {
		return fmt.Errorf("хранилище postgres: upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertTicket(t models.Ticket) error {
	_, err := s.db.Exec(`
        INSERT INTO tickets (chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), CASE WHEN $6 THEN NULL ELSE NOW() END)
        ON CONFLICT (chat_id) DO UPDATE SET
            username = EXCLUDED.username, first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name, category = EXCLUDED.category,
            active = EXCLUDED.active, last_updated = NOW(),
            closed_at = CASE WHEN EXCLUDED.active THEN NULL ELSE COALESCE(tickets.closed_at, NOW()) END`,
		t.ChatID, t.Username, t.FirstName, t.LastName, t.Category, t.Active, newConversationID())
	if err != nil {
		return fmt.Errorf("хранилище postgres: upsert ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(chatID int64, text, from string) error {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tickets WHERE chat_id = $1)`, chatID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("хранилище postgres: append message: %w", err)
	}
	if !exists {
		return nil // тикета нет - тихий no-op
	}

	_, err = s.db.Exec(`INSERT INTO ticket_messages (chat_id, text, time, sender, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		chatID, text, time.Now().Format("15:04:05"), from)
	if err != nil {
		return fmt.Errorf("хранилище postgres: append message: %w", err)
	}
	_, err = s.db.Exec(`UPDATE tickets SET last_updated = NOW() WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("хранилище postgres: append message: bump last_updated: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTicket(chatID int64) (models.Ticket, bool, error) {
	row := s.db.QueryRow(`SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets WHERE chat_id = $1`, chatID)
	t, err := scanPostgresTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Ticket{}, false, nil
		}
		return models.Ticket{}, false, fmt.Errorf("хранилище postgres: get ticket: %w", err)
	}

	msgs, err := s.loadMessages(chatID)
	if err != nil {
		return models.Ticket{}, false, err
	}
	t.Messages = msgs
	return t, true, nil
}

func (s *PostgresStore) ListActiveTickets() ([]models.Ticket, error) {
	rows, err := s.db.Query(`SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets WHERE active = TRUE ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("хранилище postgres: list: %w", err)
	}
	defer rows.Close()
	return s.collectTickets(rows)
}

func (s *PostgresStore) CloseTicket(chatID int64) error {
	// active = TRUE в условии делает закрытие идемпотентным
	_, err := s.db.Exec(`UPDATE tickets SET active = FALSE, closed_at = NOW(), last_updated = NOW() WHERE chat_id = $1 AND active = TRUE`, chatID)
	if err != nil {
		return fmt.Errorf("хранилище postgres: close ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) SearchTickets(term string) ([]models.Ticket, error) {
	const cols = `SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets`

	if id, convErr := strconv.ParseInt(term, 10, 64); convErr == nil {
		rows, err := s.db.Query(cols+` WHERE chat_id = $1`, id)
		if err != nil {
			return nil, fmt.Errorf("хранилище postgres: search: %w", err)
		}
		defer rows.Close()
		return s.collectTickets(rows)
	}

	pattern := "%" + term + "%"
	rows, err := s.db.Query(cols+` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR username ILIKE $1 ORDER BY last_updated DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("хранилище postgres: search: %w", err)
	}
	defer rows.Close()
	return s.collectTickets(rows)
}

func (s *PostgresStore) Stats() (models.Stats, error) {
	stats := models.Stats{ByCategory: make(map[string]int)}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return stats, fmt.Errorf("хранилище postgres: stats: %w", err)
	}
	err = s.db.QueryRow(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE active = TRUE),
               COUNT(*) FILTER (WHERE active = FALSE)
        FROM tickets`).Scan(&stats.TotalTickets, &stats.ActiveTickets, &stats.ClosedTickets)
	if err != nil {
		return stats, fmt.Errorf("хранилище postgres: stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM tickets WHERE active = TRUE GROUP BY category`)
	if err != nil {
		return stats, fmt.Errorf("хранилище postgres: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return stats, fmt.Errorf("хранилище postgres: stats: %w", err)
		}
		stats.ByCategory[cat] = count
	}
	return stats, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- helpers ---

func (s *PostgresStore) loadMessages(chatID int64) ([]models.TicketMessage, error) {
	rows, err := s.db.Query(`SELECT text, time, sender FROM ticket_messages WHERE chat_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("хранилище postgres: load messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.TicketMessage{}
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.Text, &m.Time, &m.From); err != nil {
			return nil, fmt.Errorf("хранилище postgres: scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PostgresStore) collectTickets(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanPostgresTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("хранилище postgres: scan ticket: %w", err)
		}
		msgs, err := s.loadMessages(t.ChatID)
		if err != nil {
			return nil, err
		}
		t.Messages = msgs
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanPostgresTicket(row scannable) (models.Ticket, error) {
	var t models.Ticket
	var closedAt sql.NullTime

	err := row.Scan(&t.ChatID, &t.Username, &t.FirstName, &t.LastName, &t.Category,
		&t.Active, &t.ConversationID, &t.CreatedAt, &t.LastUpdated, &closedAt)
	if err != nil {
		return t, err
	}
	if closedAt.Valid {
		ct := closedAt.Time
		t.ClosedAt = &ct
	}
	return t, nil
}
