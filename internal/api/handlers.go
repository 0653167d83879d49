package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"

	"SupportBot/internal/constants"
	"SupportBot/internal/formatters"
	"SupportBot/internal/models"
)

// jsonResponse - вспомогательная структура для стандартного ответа API
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

// writeJSON отдает «сырой» JSON без конверта. Используется для читающих
// эндпоинтов; мутации отвечают конвертом jsonResponse.
func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// ticketIDFromRequest разбирает {id} маршрута в chat_id пользователя.
func ticketIDFromRequest(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный id тикета: %q", idStr)
	}
	return id, nil
}

// HealthCheck отвечает на проверку живости процесса.
func (deps ApiDependencies) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

// GetTickets возвращает активные тикеты, опционально отфильтрованные по категории.
func (deps ApiDependencies) GetTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := deps.Store.ListActiveTickets()
	if err != nil {
		log.Printf("API GetTickets: Ошибка хранилища: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" {
		var filtered []models.Ticket
		for _, t := range tickets {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		tickets = filtered
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	writeJSON(w, tickets)
}

// GetTicketMessages возвращает полный лог сообщений одного тикета.
func (deps ApiDependencies) GetTicketMessages(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIDFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, found, err := deps.Store.GetTicket(id)
	if err != nil {
		log.Printf("API GetTicketMessages: Ошибка хранилища для тикета %d: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	// Отсутствующий тикет - пустой лог, не 404.
	messages := []models.TicketMessage{}
	if found && ticket.Messages != nil {
		messages = ticket.Messages
	}
	writeJSON(w, messages)
}

// replyRequest - тело POST /api/tickets/{id}/reply.
type replyRequest struct {
	Message string `json:"message"`
}

// ReplyToTicket записывает ответ администратора в тикет и доставляет его
// пользователю через бота. Порядок тот же, что в боте: сначала запись,
// потом доставка.
func (deps ApiDependencies) ReplyToTicket(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIDFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	_, found, err := deps.Store.GetTicket(id)
	if err != nil {
		log.Printf("API ReplyToTicket: Ошибка хранилища для тикета %d: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "ticket not found")
		return
	}

	if err := deps.Store.AppendMessage(id, req.Message, constants.SENDER_ADMIN); err != nil {
		log.Printf("API ReplyToTicket: Ошибка записи ответа для тикета %d: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	if _, err := deps.Bot.Send(tgbotapi.NewMessage(id, "💬 Support: "+req.Message)); err != nil {
		log.Printf("API ReplyToTicket: Ответ записан, но доставка для %d не удалась: %v", id, err)
		writeJSONSuccess(w, "reply saved, delivery failed", nil)
		return
	}

	writeJSONSuccess(w, "reply sent", nil)
}

// CloseTicket закрывает тикет и уведомляет пользователя (best effort).
func (deps ApiDependencies) CloseTicket(w http.ResponseWriter, r *http.Request) {
	id, err := ticketIDFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, found, err := deps.Store.GetTicket(id)
	if err != nil {
		log.Printf("API CloseTicket: Ошибка хранилища для тикета %d: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "ticket not found")
		return
	}

	if err := deps.Store.CloseTicket(id); err != nil {
		log.Printf("API CloseTicket: Ошибка закрытия тикета %d: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	if _, err := deps.Bot.Send(tgbotapi.NewMessage(id, "🔒 Your support ticket has been closed. Use /start if you need help again.")); err != nil {
		log.Printf("API CloseTicket: Тикет %d закрыт, но уведомление не доставлено: %v", id, err)
	}

	writeJSONSuccess(w, "ticket closed", nil)
}

// GetStats возвращает сводную статистику для дашборда.
func (deps ApiDependencies) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := deps.Store.Stats()
	if err != nil {
		log.Printf("API GetStats: Ошибка хранилища: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, stats)
}

// ExportTickets отдает Excel-отчет по всем тикетам как файл.
func (deps ApiDependencies) ExportTickets(w http.ResponseWriter, r *http.Request) {
	// Пустая подстрока совпадает с любым тикетом: отчет покрывает и закрытые.
	tickets, err := deps.Store.SearchTickets("")
	if err != nil {
		log.Printf("API ExportTickets: Ошибка хранилища: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	f, err := formatters.BuildTicketsWorkbook(tickets)
	if err != nil {
		log.Printf("API ExportTickets: Ошибка сборки Excel: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}

	fileName := fmt.Sprintf("tickets_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(w); err != nil {
		log.Printf("API ExportTickets: Ошибка записи Excel в ответ: %v", err)
	}
}
