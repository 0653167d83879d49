package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"SupportBot/internal/constants"
	"SupportBot/internal/formatters"
	"SupportBot/internal/models"
	"SupportBot/internal/utils"
)

// filterTickets применяет текущий фильтр списка к активным тикетам.
// Пустое значение и FILTER_ALL не фильтруют; FILTER_URGENT оставляет тикеты
// с длинной историей; FILTER_RECENT оставляет обновленные за последние сутки;
// любое другое значение трактуется как ключ категории.
func filterTickets(tickets []models.Ticket, filter string) []models.Ticket {
	if filter == "" || filter == constants.FILTER_ALL {
		return tickets
	}
	var filtered []models.Ticket
	for _, t := range tickets {
		switch filter {
		case constants.FILTER_URGENT:
			if len(t.Messages) >= constants.UrgentMessageThreshold {
				filtered = append(filtered, t)
			}
		case constants.FILTER_RECENT:
			if time.Since(t.LastUpdated) <= constants.RecentWindow {
				filtered = append(filtered, t)
			}
		default:
			if t.Category == filter {
				filtered = append(filtered, t)
			}
		}
	}
	return filtered
}

// paginateTickets возвращает срез для страницы и общее число страниц.
// Номер страницы за пределами диапазона приводится к границе.
func paginateTickets(tickets []models.Ticket, page, perPage int) ([]models.Ticket, int, int) {
	totalPages := (len(tickets) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * perPage
	end := start + perPage
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[start:end], page, totalPages
}

// SendTicketList отправляет или редактирует страницу списка активных тикетов.
// Курсор (страница и фильтр) хранится в сессии администратора.
func (bh *BotHandler) SendTicketList(adminChatID int64, messageIDToEdit int) {
	session := bh.Deps.SessionManager.GetAdminSession(adminChatID)

	tickets, err := bh.Deps.Store.ListActiveTickets()
	if err != nil {
		log.Printf("SendTicketList: Ошибка получения списка тикетов: %v", err)
		bh.sendErrorMessageHelper(adminChatID, messageIDToEdit, constants.StoreErrorMessage)
		return
	}

	filtered := filterTickets(tickets, session.Filter)
	if len(filtered) == 0 {
		text := "📭 No active tickets."
		if session.Filter != "" && session.Filter != constants.FILTER_ALL {
			text = fmt.Sprintf("📭 No active tickets match filter %q.", formatters.FilterLabel(session.Filter))
		}
		keyboard := bh.ticketListFilterKeyboard(session.Filter)
		bh.sendOrEditMessageHelper(adminChatID, messageIDToEdit, text, &keyboard)
		return
	}

	pageTickets, page, totalPages := paginateTickets(filtered, session.Page, constants.TicketsPerPage)
	if page != session.Page {
		session.Page = page
		bh.Deps.SessionManager.UpdateAdminSession(adminChatID, session)
	}

	text := formatters.FormatTicketsPage(pageTickets, page, totalPages, session.Filter)
	keyboard := bh.ticketListKeyboard(pageTickets, page, totalPages, session.Filter)
	bh.sendOrEditMessageHelper(adminChatID, messageIDToEdit, text, &keyboard)
}

// ticketListKeyboard собирает клавиатуру страницы списка: ряд действий на
// каждый тикет, навигация по страницам и ряд фильтров.
func (bh *BotHandler) ticketListKeyboard(pageTickets []models.Ticket, page, totalPages int, activeFilter string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, t := range pageTickets {
		id := strconv.FormatInt(t.ChatID, 10)
		label := utils.TruncateString(utils.GetTicketDisplayName(t), 24)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 "+label, constants.CMD_QUICK_REPLY+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("🔒", constants.CMD_QUICK_CLOSE+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("📜", constants.CMD_HISTORY+":"+id),
		))
	}

	if totalPages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s:%d", constants.CMD_TICKETS_PAGE, page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, totalPages), constants.CMD_NOOP))
		if page < totalPages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s:%d", constants.CMD_TICKETS_PAGE, page+1)))
		}
		rows = append(rows, nav)
	}

	filterKeyboard := bh.ticketListFilterKeyboard(activeFilter)
	rows = append(rows, filterKeyboard.InlineKeyboard...)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ticketListFilterKeyboard - ряды фильтров списка. Активный фильтр помечается.
func (bh *BotHandler) ticketListFilterKeyboard(activeFilter string) tgbotapi.InlineKeyboardMarkup {
	mark := func(label, filter string) string {
		if filter == activeFilter || (filter == constants.FILTER_ALL && activeFilter == "") {
			return "✅ " + label
		}
		return label
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("All", constants.FILTER_ALL), constants.CMD_FILTER+":"+constants.FILTER_ALL),
			tgbotapi.NewInlineKeyboardButtonData(mark(formatters.FilterLabel(constants.FILTER_URGENT), constants.FILTER_URGENT), constants.CMD_FILTER+":"+constants.FILTER_URGENT),
			tgbotapi.NewInlineKeyboardButtonData(mark(formatters.FilterLabel(constants.FILTER_RECENT), constants.FILTER_RECENT), constants.CMD_FILTER+":"+constants.FILTER_RECENT),
		),
	}

	var categoryRow []tgbotapi.InlineKeyboardButton
	for _, cat := range append(append([]string{}, constants.MenuCategories...), constants.CAT_SUPPORTCHAT) {
		categoryRow = append(categoryRow, tgbotapi.NewInlineKeyboardButtonData(mark(constants.CategoryDisplayMap[cat], cat), constants.CMD_FILTER+":"+cat))
		if len(categoryRow) == 2 {
			rows = append(rows, categoryRow)
			categoryRow = nil
		}
	}
	if len(categoryRow) > 0 {
		rows = append(rows, categoryRow)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// handleReplyCommand разбирает аргументы /reply <id> <text> и отправляет ответ.
func (bh *BotHandler) handleReplyCommand(adminChatID int64, args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		bh.sendMessage(adminChatID, "💡 Usage: /reply <user_id> <message>")
		return
	}
	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		bh.sendMessage(adminChatID, "💡 Usage: /reply <user_id> <message>")
		return
	}
	bh.replyToUser(adminChatID, targetID, strings.TrimSpace(parts[1]))
}

// replyToUser - общий путь ответа администратора пользователю.
// Сначала фиксируем ответ в хранилище, затем доставляем: сбой доставки
// сообщается администратору, но запись не откатывается.
func (bh *BotHandler) replyToUser(adminChatID, targetChatID int64, text string) {
	ticket, found, err := bh.Deps.Store.GetTicket(targetChatID)
	if err != nil {
		log.Printf("replyToUser: Ошибка получения тикета %d: %v", targetChatID, err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}
	if !found {
		bh.sendMessage(adminChatID, constants.TicketNotFoundMessage)
		return
	}

	if err := bh.Deps.Store.AppendMessage(targetChatID, text, constants.SENDER_ADMIN); err != nil {
		log.Printf("replyToUser: Ошибка записи ответа для тикета %d: %v", targetChatID, err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}

	_, err = bh.sendMessage(targetChatID, "💬 Support: "+text)
	if err != nil {
		bh.sendMessage(adminChatID, fmt.Sprintf("⚠️ Reply saved, but delivery to %d failed: %v", targetChatID, err))
		return
	}
	bh.sendMessage(adminChatID, fmt.Sprintf("✅ Reply sent to %s.", utils.GetTicketDisplayName(ticket)))
}

// handleCloseCommand разбирает аргумент /close <id> и закрывает тикет.
func (bh *BotHandler) handleCloseCommand(adminChatID int64, args string) {
	targetID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		bh.sendMessage(adminChatID, "💡 Usage: /close <user_id>")
		return
	}
	bh.closeTicketByAdmin(adminChatID, targetID, 0)
}

// closeTicketByAdmin закрывает тикет и уведомляет пользователя (best effort).
// Повторное закрытие сообщает об успехе, состояние не меняется.
func (bh *BotHandler) closeTicketByAdmin(adminChatID, targetChatID int64, messageIDToEdit int) {
	_, found, err := bh.Deps.Store.GetTicket(targetChatID)
	if err != nil {
		log.Printf("closeTicketByAdmin: Ошибка получения тикета %d: %v", targetChatID, err)
		bh.sendErrorMessageHelper(adminChatID, messageIDToEdit, constants.StoreErrorMessage)
		return
	}
	if !found {
		bh.sendErrorMessageHelper(adminChatID, messageIDToEdit, constants.TicketNotFoundMessage)
		return
	}

	if err := bh.Deps.Store.CloseTicket(targetChatID); err != nil {
		log.Printf("closeTicketByAdmin: Ошибка закрытия тикета %d: %v", targetChatID, err)
		bh.sendErrorMessageHelper(adminChatID, messageIDToEdit, constants.StoreErrorMessage)
		return
	}

	bh.sendMessage(targetChatID, "🔒 Your support ticket has been closed. Use /start if you need help again.")
	bh.sendMessage(adminChatID, fmt.Sprintf("✅ Ticket %d closed.", targetChatID))
}

// SendTicketHistory отправляет администратору полный лог одного тикета.
func (bh *BotHandler) SendTicketHistory(adminChatID, targetChatID int64) {
	ticket, found, err := bh.Deps.Store.GetTicket(targetChatID)
	if err != nil {
		log.Printf("SendTicketHistory: Ошибка получения тикета %d: %v", targetChatID, err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}
	if !found {
		bh.sendMessage(adminChatID, constants.TicketNotFoundMessage)
		return
	}
	bh.sendMessage(adminChatID, formatters.FormatHistory(ticket))
}

// SendStats отправляет администратору сводную статистику.
func (bh *BotHandler) SendStats(adminChatID int64) {
	stats, err := bh.Deps.Store.Stats()
	if err != nil {
		log.Printf("SendStats: Ошибка получения статистики: %v", err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}
	bh.sendMessage(adminChatID, formatters.FormatStats(stats))
}

// SendSearchResults ищет тикеты по запросу и рендерит их как список без пагинации.
func (bh *BotHandler) SendSearchResults(adminChatID int64, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		bh.sendMessage(adminChatID, "💡 Usage: /search <user id, name or username>")
		return
	}

	tickets, err := bh.Deps.Store.SearchTickets(term)
	if err != nil {
		log.Printf("SendSearchResults: Ошибка поиска по '%s': %v", term, err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}
	if len(tickets) == 0 {
		bh.sendMessage(adminChatID, fmt.Sprintf("🔍 No tickets found for %q.", term))
		return
	}
	if len(tickets) > constants.SearchPerPage {
		tickets = tickets[:constants.SearchPerPage]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Search results for %q:\n\n", term)
	for _, t := range tickets {
		b.WriteString(formatters.FormatTicketLine(t))
		b.WriteString(strings.Repeat("─", 20))
		b.WriteString("\n")
	}
	keyboard := bh.searchResultsKeyboard(tickets)
	bh.sendOrEditMessageHelper(adminChatID, 0, b.String(), &keyboard)
}

func (bh *BotHandler) searchResultsKeyboard(tickets []models.Ticket) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tickets {
		id := strconv.FormatInt(t.ChatID, 10)
		label := utils.TruncateString(utils.GetTicketDisplayName(t), 24)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 "+label, constants.CMD_QUICK_REPLY+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("📜", constants.CMD_HISTORY+":"+id),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SendTicketsExport генерирует Excel-отчет по всем тикетам и отправляет файлом.
func (bh *BotHandler) SendTicketsExport(adminChatID int64) {
	// Пустая подстрока совпадает с любым тикетом: отчет покрывает и закрытые.
	tickets, err := bh.Deps.Store.SearchTickets("")
	if err != nil {
		log.Printf("SendTicketsExport: Ошибка получения тикетов: %v", err)
		bh.sendMessage(adminChatID, constants.StoreErrorMessage)
		return
	}

	f, err := formatters.BuildTicketsWorkbook(tickets)
	if err != nil {
		log.Printf("SendTicketsExport: Ошибка сборки Excel: %v", err)
		bh.sendMessage(adminChatID, "❌ Failed to build the Excel report.")
		return
	}

	filePath := filepath.Join(os.TempDir(), fmt.Sprintf("tickets_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(filePath); err != nil {
		log.Printf("SendTicketsExport: Ошибка сохранения Excel-файла %s: %v", filePath, err)
		bh.sendMessage(adminChatID, "❌ Failed to build the Excel report.")
		return
	}

	doc := tgbotapi.NewDocument(adminChatID, tgbotapi.FilePath(filePath))
	doc.Caption = fmt.Sprintf("📄 Tickets export, %s", time.Now().Format("2006-01-02"))
	if _, err := bh.Deps.BotClient.Send(doc); err != nil {
		log.Printf("SendTicketsExport: Ошибка отправки Excel-файла: %v", err)
		bh.sendMessage(adminChatID, "❌ Failed to send the Excel report.")
	}

	// Удаляем временный файл после отправки / Delete temporary file after sending
	if errRemove := os.Remove(filePath); errRemove != nil {
		log.Printf("SendTicketsExport: Ошибка удаления временного Excel-файла %s: %v", filePath, errRemove)
	}
}

// SendBotLink отправляет ссылку на бота и QR-код для нее.
func (bh *BotHandler) SendBotLink(adminChatID int64) {
	link, err := utils.GenerateBotLink(bh.Deps.Config.BotUsername)
	if err != nil {
		log.Printf("SendBotLink: Ошибка генерации ссылки: %v", err)
		bh.sendMessage(adminChatID, "❌ Bot username is not configured, cannot build the link.")
		return
	}

	qrBytes, err := utils.GenerateBotQRCode(bh.Deps.Config.BotUsername)
	if err != nil {
		log.Printf("SendBotLink: Ошибка генерации QR-кода: %v", err)
		bh.sendMessage(adminChatID, "🔗 "+link)
		return
	}

	photo := tgbotapi.NewPhoto(adminChatID, tgbotapi.FileBytes{Name: "support_bot_qr.png", Bytes: qrBytes})
	photo.Caption = "🔗 " + link
	if _, err := bh.Deps.BotClient.Send(photo); err != nil {
		log.Printf("SendBotLink: Ошибка отправки QR-кода: %v", err)
		bh.sendMessage(adminChatID, "🔗 "+link)
	}
}
