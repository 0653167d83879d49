package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"SupportBot/internal/models"
)

// SQLiteStore - встраиваемое однофайловое хранилище.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает (или создает) базу SQLite и выполняет миграции.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("хранилище sqlite: открытие: %w", err)
	}

	// WAL для корректных параллельных чтений
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("хранилище sqlite: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			chat_id    INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			username   TEXT NOT NULL DEFAULT '',
			first_seen TEXT NOT NULL,
			last_seen  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tickets (
			chat_id         INTEGER PRIMARY KEY,
			username        TEXT NOT NULL DEFAULT '',
			first_name      TEXT NOT NULL DEFAULT '',
			last_name       TEXT NOT NULL DEFAULT '',
			category        TEXT NOT NULL DEFAULT '',
			active          INTEGER NOT NULL DEFAULT 1,
			conversation_id TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			last_updated    TEXT NOT NULL,
			closed_at       TEXT
		);

		CREATE TABLE IF NOT EXISTS ticket_messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id    INTEGER NOT NULL REFERENCES tickets(chat_id),
			text       TEXT NOT NULL,
			time       TEXT NOT NULL,
			sender     TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_chat ON ticket_messages(chat_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_active ON tickets(active);
	`)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: миграция: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertUser(chatID int64, firstName, lastName, username string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO users (chat_id, first_name, last_name, username, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			first_name=excluded.first_name, last_name=excluded.last_name,
			username=excluded.username, last_seen=excluded.last_seen
	`, chatID, firstName, lastName, username, now, now)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertTicket(t models.Ticket) error {
	now := time.Now().Format(time.RFC3339)
	var closedAt any
	if !t.Active {
		closedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO tickets (chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			username=excluded.username, first_name=excluded.first_name,
			last_name=excluded.last_name, category=excluded.category,
			active=excluded.active, last_updated=excluded.last_updated,
			closed_at=CASE WHEN excluded.active = 1 THEN NULL ELSE COALESCE(tickets.closed_at, excluded.closed_at) END
	`, t.ChatID, t.Username, t.FirstName, t.LastName, t.Category, boolToInt(t.Active),
		newConversationID(), now, now, closedAt)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: upsert ticket: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(chatID int64, text, from string) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tickets WHERE chat_id = ?`, chatID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: append message: %w", err)
	}
	if exists == 0 {
		return nil // тикета нет - тихий no-op
	}

	now := time.Now()
	_, err = s.db.Exec(`INSERT INTO ticket_messages (chat_id, text, time, sender, created_at) VALUES (?, ?, ?, ?, ?)`,
		chatID, text, now.Format("15:04:05"), from, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("хранилище sqlite: append message: %w", err)
	}
	_, err = s.db.Exec(`UPDATE tickets SET last_updated = ? WHERE chat_id = ?`, now.Format(time.RFC3339), chatID)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: append message: bump last_updated: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTicket(chatID int64) (models.Ticket, bool, error) {
	row := s.db.QueryRow(`SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets WHERE chat_id = ?`, chatID)
	t, err := scanSQLiteTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Ticket{}, false, nil
		}
		return models.Ticket{}, false, fmt.Errorf("хранилище sqlite: get ticket: %w", err)
	}

	msgs, err := s.loadMessages(chatID)
	if err != nil {
		return models.Ticket{}, false, err
	}
	t.Messages = msgs
	return t, true, nil
}

func (s *SQLiteStore) ListActiveTickets() ([]models.Ticket, error) {
	rows, err := s.db.Query(`SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets WHERE active = 1 ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("хранилище sqlite: list: %w", err)
	}
	defer rows.Close()
	return s.collectTickets(rows)
}

func (s *SQLiteStore) CloseTicket(chatID int64) error {
	now := time.Now().Format(time.RFC3339)
	// active=1 в условии делает операцию идемпотентной: повторное закрытие
	// не перезаписывает closed_at.
	_, err := s.db.Exec(`UPDATE tickets SET active = 0, closed_at = ?, last_updated = ? WHERE chat_id = ? AND active = 1`, now, now, chatID)
	if err != nil {
		return fmt.Errorf("хранилище sqlite: close ticket: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SearchTickets(term string) ([]models.Ticket, error) {
	const cols = `SELECT chat_id, username, first_name, last_name, category, active, conversation_id, created_at, last_updated, closed_at FROM tickets`

	if id, convErr := strconv.ParseInt(term, 10, 64); convErr == nil {
		rows, err := s.db.Query(cols+` WHERE chat_id = ?`, id)
		if err != nil {
			return nil, fmt.Errorf("хранилище sqlite: search: %w", err)
		}
		defer rows.Close()
		return s.collectTickets(rows)
	}

	pattern := "%" + term + "%"
	rows, err := s.db.Query(cols+` WHERE first_name LIKE ? COLLATE NOCASE OR last_name LIKE ? COLLATE NOCASE OR username LIKE ? COLLATE NOCASE ORDER BY last_updated DESC`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("хранилище sqlite: search: %w", err)
	}
	defer rows.Close()
	return s.collectTickets(rows)
}

func (s *SQLiteStore) Stats() (models.Stats, error) {
	stats := models.Stats{ByCategory: make(map[string]int)}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return stats, fmt.Errorf("хранилище sqlite: stats: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*), COUNT(*) FILTER (WHERE active = 1), COUNT(*) FILTER (WHERE active = 0) FROM tickets`).
		Scan(&stats.TotalTickets, &stats.ActiveTickets, &stats.ClosedTickets)
	if err != nil {
		return stats, fmt.Errorf("хранилище sqlite: stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM tickets WHERE active = 1 GROUP BY category`)
	if err != nil {
		return stats, fmt.Errorf("хранилище sqlite: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return stats, fmt.Errorf("хранилище sqlite: stats: %w", err)
		}
		stats.ByCategory[cat] = count
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB возвращает нижележащее соединение (для тестов).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// --- helpers ---

func (s *SQLiteStore) loadMessages(chatID int64) ([]models.TicketMessage, error) {
	rows, err := s.db.Query(`SELECT text, time, sender FROM ticket_messages WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("хранилище sqlite: load messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.TicketMessage{}
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.Text, &m.Time, &m.From); err != nil {
			return nil, fmt.Errorf("хранилище sqlite: scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) collectTickets(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanSQLiteTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("хранилище sqlite: scan ticket: %w", err)
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

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteTicket(row scannable) (models.Ticket, error) {
	var t models.Ticket
	var active int
	var createdAt, lastUpdated string
	var closedAt *string

	err := row.Scan(&t.ChatID, &t.Username, &t.FirstName, &t.LastName, &t.Category,
		&active, &t.ConversationID, &createdAt, &lastUpdated, &closedAt)
	if err != nil {
		return t, err
	}

	t.Active = active == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	if closedAt != nil {
		ct, _ := time.Parse(time.RFC3339, *closedAt)
		t.ClosedAt = &ct
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
