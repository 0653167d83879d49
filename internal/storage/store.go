package storage

import (
	"fmt"

	"github.com/google/uuid"

	"SupportBot/internal/config"
	"SupportBot/internal/constants"
	"SupportBot/internal/models"
)

// Store - единый контракт хранилища тикетов, одинаковый для всех бэкендов.
// Store is the uniform persistence contract for users and tickets.
type Store interface {
	// UpsertUser вставляет или обновляет пользователя; всегда только побочный эффект.
	UpsertUser(chatID int64, firstName, lastName, username string) error
	// UpsertTicket вставляет тикет или перезаписывает профиль/категорию/активность
	// существующего для этого chat_id. Обновляет last_updated; при (ре)активации
	// сбрасывает closed_at. История сообщений сохраняется.
	UpsertTicket(t models.Ticket) error
	// AppendMessage добавляет одно сообщение в лог тикета и обновляет last_updated.
	// Если тикета нет - тихий no-op (паритет с исходным поведением).
	AppendMessage(chatID int64, text, from string) error
	// GetTicket возвращает тикет вместе с сообщениями.
	GetTicket(chatID int64) (models.Ticket, bool, error)
	// ListActiveTickets возвращает активные тикеты, last_updated по убыванию.
	ListActiveTickets() ([]models.Ticket, error)
	// CloseTicket ставит active=false и closed_at=now. Идемпотентна: повторный
	// вызов не меняет closed_at. История не удаляется.
	CloseTicket(chatID int64) error
	// SearchTickets ищет по точному числовому chat_id или подстроке
	// имени/username без учета регистра.
	SearchTickets(term string) ([]models.Ticket, error)
	// Stats возвращает счетчики пользователей и тикетов.
	Stats() (models.Stats, error)
	// Close освобождает ресурсы бэкенда.
	Close() error
}

// New создает хранилище по драйверу из конфигурации.
// Ошибка инициализации хранилища фатальна для процесса - обрабатывается в main.
func New(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case constants.STORAGE_MEMORY:
		return NewMemoryStore(), nil
	case constants.STORAGE_SQLITE:
		return NewSQLiteStore(cfg.SQLitePath)
	case constants.STORAGE_POSTGRES:
		return NewPostgresStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %s", cfg.StorageDriver)
	}
}

// newConversationID генерирует идентификатор переписки для нового тикета.
func newConversationID() string {
	return uuid.New().String()
}
