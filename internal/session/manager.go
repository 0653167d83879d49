package session

import (
	"log"
	"sync"

	"SupportBot/internal/constants"
)

// TempTicketData - накопитель полей сценария поддержки для одного пользователя.
// TempTicketData accumulates the intake dialogue fields for one user.
type TempTicketData struct {
	Category string // выбранный пункт меню / selected menu option
	Wallet   string // собранный адрес кошелька / collected wallet address
}

// AdminSessionData - эфемерное состояние административной сессии.
// Цель быстрого ответа и курсор списка тикетов; не сохраняется.
type AdminSessionData struct {
	QuickReplyTarget int64  // chat_id для следующего текста без явной цели
	Page             int    // текущая страница списка тикетов
	Filter           string // текущий фильтр списка тикетов
}

// SessionManager управляет состояниями диалогов пользователей и сессией администратора.
// SessionManager manages per-user dialogue states and the admin session.
// Обновления обрабатываются в отдельных горутинах, поэтому карты защищены мьютексами.
type SessionManager struct {
	userStates     map[int64]string // Ключ: chatID, Значение: текущее состояние / Key: chatID, Value: current state
	userStateMutex sync.RWMutex

	tempTickets      map[int64]TempTicketData
	tempTicketsMutex sync.RWMutex

	adminSessions      map[int64]AdminSessionData // Ключ: chatID администратора
	adminSessionsMutex sync.RWMutex
}

// NewSessionManager создает и возвращает новый экземпляр SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		userStates:    make(map[int64]string),
		tempTickets:   make(map[int64]TempTicketData),
		adminSessions: make(map[int64]AdminSessionData),
	}
}

// --- Управление состоянием пользователя (User State) ---

// GetState возвращает текущее состояние пользователя.
// Если состояние не установлено, возвращает STATE_IDLE.
func (sm *SessionManager) GetState(chatID int64) string {
	sm.userStateMutex.RLock()
	defer sm.userStateMutex.RUnlock()
	state, ok := sm.userStates[chatID]
	if !ok {
		return constants.STATE_IDLE
	}
	return state
}

// SetState устанавливает новое состояние для пользователя.
func (sm *SessionManager) SetState(chatID int64, state string) {
	sm.userStateMutex.Lock()
	defer sm.userStateMutex.Unlock()
	sm.userStates[chatID] = state
	log.Printf("SessionManager.SetState: Состояние для chatID %d установлено: %s", chatID, state)
}

// ClearState сбрасывает состояние пользователя к STATE_IDLE.
func (sm *SessionManager) ClearState(chatID int64) {
	sm.userStateMutex.Lock()
	defer sm.userStateMutex.Unlock()
	delete(sm.userStates, chatID)
}

// --- Управление временными данными тикета (Temp Tickets) ---

// GetTempTicket возвращает накопленные данные сценария для пользователя.
func (sm *SessionManager) GetTempTicket(chatID int64) TempTicketData {
	sm.tempTicketsMutex.RLock()
	defer sm.tempTicketsMutex.RUnlock()
	return sm.tempTickets[chatID]
}

// UpdateTempTicket обновляет накопленные данные сценария для пользователя.
func (sm *SessionManager) UpdateTempTicket(chatID int64, data TempTicketData) {
	sm.tempTicketsMutex.Lock()
	defer sm.tempTicketsMutex.Unlock()
	sm.tempTickets[chatID] = data
}

// ClearTempTicket удаляет накопленные данные сценария для пользователя.
// Вызывается на терминальном шаге сценария и при явном сбросе (/start).
func (sm *SessionManager) ClearTempTicket(chatID int64) {
	sm.tempTicketsMutex.Lock()
	defer sm.tempTicketsMutex.Unlock()
	delete(sm.tempTickets, chatID)
}

// --- Управление сессией администратора (Admin Session) ---

// GetAdminSession возвращает сессию администратора.
func (sm *SessionManager) GetAdminSession(chatID int64) AdminSessionData {
	sm.adminSessionsMutex.RLock()
	defer sm.adminSessionsMutex.RUnlock()
	return sm.adminSessions[chatID]
}

// UpdateAdminSession обновляет сессию администратора.
func (sm *SessionManager) UpdateAdminSession(chatID int64, data AdminSessionData) {
	sm.adminSessionsMutex.Lock()
	defer sm.adminSessionsMutex.Unlock()
	sm.adminSessions[chatID] = data
}

// ClearQuickReplyTarget сбрасывает цель быстрого ответа, сохраняя курсор списка.
func (sm *SessionManager) ClearQuickReplyTarget(chatID int64) {
	sm.adminSessionsMutex.Lock()
	defer sm.adminSessionsMutex.Unlock()
	data := sm.adminSessions[chatID]
	data.QuickReplyTarget = 0
	sm.adminSessions[chatID] = data
}
