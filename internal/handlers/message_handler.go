package handlers

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"SupportBot/internal/constants"
	"SupportBot/internal/formatters"
	"SupportBot/internal/models"
	"SupportBot/internal/utils"
)

// notificationIDPattern вытаскивает chat_id из уведомлений бота вида "ID: 12345".
// Используется, когда администратор отвечает реплаем на уведомление.
var notificationIDPattern = regexp.MustCompile(`ID:\s*(\d+)`)

// HandleMessage обрабатывает входящие текстовые сообщения от Telegram.
func (bh *BotHandler) HandleMessage(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	message := update.Message
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	log.Printf("HandleMessage: ChatID=%d, MessageID=%d, Text='%s'", chatID, message.MessageID, text)

	bh.upsertUserFromMessage(message)

	if message.IsCommand() {
		bh.handleCommand(message)
		return
	}

	if bh.isAdmin(chatID) {
		bh.handleAdminText(message, text)
		return
	}

	bh.handleUserText(message, text)
}

// handleCommand обрабатывает команды бота. Административные команды
// отклоняются до обращения к хранилищу.
func (bh *BotHandler) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start":
		// /start - явный сброс диалога: состояние и накопленные данные очищаются.
		bh.Deps.SessionManager.ClearState(chatID)
		bh.Deps.SessionManager.ClearTempTicket(chatID)
		var firstName string
		if message.From != nil {
			firstName = message.From.FirstName
		}
		bh.SendMainMenu(chatID, 0, firstName)
		return

	case "stop":
		bh.handleStop(chatID)
		return

	case "myid":
		var firstName, lastName, username string
		if message.From != nil {
			firstName = message.From.FirstName
			lastName = message.From.LastName
			username = message.From.UserName
		}
		bh.sendMessage(chatID, formatters.FormatMyID(chatID, firstName, lastName, username))
		return
	}

	switch command {
	case "tickets", "reply", "close", "stats", "search", "export", "link":
		// Административные команды: отказ до обращения к хранилищу.
		if !bh.isAdmin(chatID) {
			log.Printf("handleCommand: Отказ в доступе к /%s для chatID %d", command, chatID)
			bh.sendMessage(chatID, constants.AccessDeniedMessage)
			return
		}
	default:
		log.Printf("handleCommand: Неизвестная команда '%s' от chatID %d", command, chatID)
		bh.sendMessage(chatID, "❓ Unknown command. Use /start to open the menu.")
		return
	}

	switch command {
	case "tickets":
		session := bh.Deps.SessionManager.GetAdminSession(chatID)
		session.Page = 0
		session.Filter = constants.FILTER_ALL
		bh.Deps.SessionManager.UpdateAdminSession(chatID, session)
		bh.SendTicketList(chatID, 0)
	case "reply":
		bh.handleReplyCommand(chatID, args)
	case "close":
		bh.handleCloseCommand(chatID, args)
	case "stats":
		bh.SendStats(chatID)
	case "search":
		bh.SendSearchResults(chatID, args)
	case "export":
		bh.SendTicketsExport(chatID)
	case "link":
		bh.SendBotLink(chatID)
	}
}

// handleStop закрывает активный тикет пользователя. Состояние диалога
// не трогает: явный сброс делает /start.
func (bh *BotHandler) handleStop(chatID int64) {
	ticket, found, err := bh.Deps.Store.GetTicket(chatID)
	if err != nil {
		log.Printf("handleStop: Ошибка получения тикета %d: %v", chatID, err)
		bh.sendMessage(chatID, constants.StoreErrorMessage)
		return
	}
	if !found || !ticket.Active {
		bh.sendMessage(chatID, "ℹ️ You have no active support ticket.")
		return
	}

	if err := bh.Deps.Store.CloseTicket(chatID); err != nil {
		log.Printf("handleStop: Ошибка закрытия тикета %d: %v", chatID, err)
		bh.sendMessage(chatID, constants.StoreErrorMessage)
		return
	}

	bh.sendMessage(chatID, "✅ Your support conversation has been closed. Use /start if you need help again.")
	bh.sendMessage(bh.Deps.Config.AdminChatID,
		fmt.Sprintf("🔒 Ticket closed by user.\n👤 %s\n🆔 ID: %d", utils.GetTicketDisplayName(ticket), chatID))
}

// handleAdminText маршрутизирует текст администратора без команды.
// Приоритет: реплай на уведомление с "ID: <n>", затем запомненная цель
// быстрого ответа. Без явной цели - подсказка (неявного "последнего
// написавшего" нет).
func (bh *BotHandler) handleAdminText(message *tgbotapi.Message, text string) {
	chatID := message.Chat.ID
	if text == "" {
		return
	}

	if message.ReplyToMessage != nil {
		if m := notificationIDPattern.FindStringSubmatch(message.ReplyToMessage.Text); m != nil {
			targetID, err := strconv.ParseInt(m[1], 10, 64)
			if err == nil {
				bh.replyToUser(chatID, targetID, text)
				bh.Deps.SessionManager.ClearQuickReplyTarget(chatID)
				return
			}
		}
	}

	session := bh.Deps.SessionManager.GetAdminSession(chatID)
	if session.QuickReplyTarget != 0 {
		target := session.QuickReplyTarget
		bh.Deps.SessionManager.ClearQuickReplyTarget(chatID)
		bh.replyToUser(chatID, target, text)
		return
	}

	bh.sendMessage(chatID, "💡 Use /reply <id> <message>, the 💬 button in /tickets, or reply directly to a ticket notification.")
}

// handleUserText обрабатывает текст пользователя согласно состоянию диалога.
func (bh *BotHandler) handleUserText(message *tgbotapi.Message, text string) {
	chatID := message.Chat.ID
	state := bh.Deps.SessionManager.GetState(chatID)

	switch state {
	case constants.STATE_SUPPORT_WALLET:
		if text == "" {
			bh.sendMessage(chatID, "💳 Please send your wallet address as text.")
			return
		}
		tempData := bh.Deps.SessionManager.GetTempTicket(chatID)
		tempData.Wallet = text
		bh.Deps.SessionManager.UpdateTempTicket(chatID, tempData)
		bh.Deps.SessionManager.SetState(chatID, constants.STATE_SUPPORT_ISSUE)
		bh.sendMessage(chatID, "💭 Got it. Now please describe the problem:")

	case constants.STATE_SUPPORT_ISSUE:
		if text == "" {
			bh.sendMessage(chatID, "💭 Please describe the problem as text.")
			return
		}
		bh.finalizeTicket(message, text)

	default:
		bh.forwardFreeChatMessage(message, text)
	}
}

// finalizeTicket - терминальный шаг сценария: создает тикет, пишет оба
// собранных значения в историю, уведомляет администратора.
func (bh *BotHandler) finalizeTicket(message *tgbotapi.Message, issue string) {
	chatID := message.Chat.ID
	tempData := bh.Deps.SessionManager.GetTempTicket(chatID)

	ticket := models.Ticket{
		ChatID:   chatID,
		Category: tempData.Category,
		Active:   true,
	}
	if message.From != nil {
		ticket.Username = message.From.UserName
		ticket.FirstName = message.From.FirstName
		ticket.LastName = message.From.LastName
	}

	if err := bh.Deps.Store.UpsertTicket(ticket); err != nil {
		log.Printf("finalizeTicket: Ошибка создания тикета для chatID %d: %v", chatID, err)
		bh.sendMessage(chatID, constants.StoreErrorMessage)
		return
	}
	if err := bh.Deps.Store.AppendMessage(chatID, tempData.Wallet, constants.SENDER_USER); err != nil {
		log.Printf("finalizeTicket: Ошибка записи кошелька для chatID %d: %v", chatID, err)
	}
	if err := bh.Deps.Store.AppendMessage(chatID, issue, constants.SENDER_USER); err != nil {
		log.Printf("finalizeTicket: Ошибка записи описания для chatID %d: %v", chatID, err)
	}

	bh.Deps.SessionManager.ClearState(chatID)
	bh.Deps.SessionManager.ClearTempTicket(chatID)

	bh.sendMessage(chatID, "✅ Your support ticket has been created!\n\nOur team will contact you soon. You can keep sending messages here, they will be added to your ticket.")

	stored, found, err := bh.Deps.Store.GetTicket(chatID)
	if err != nil || !found {
		log.Printf("finalizeTicket: Тикет %d не прочитан после создания: %v", chatID, err)
		stored = ticket
	}
	notification := formatters.FormatNewTicketNotification(stored, tempData.Wallet, issue)
	keyboard := bh.ticketActionKeyboard(chatID)
	bh.sendOrEditMessageHelper(bh.Deps.Config.AdminChatID, 0, notification, &keyboard)
}

// forwardFreeChatMessage добавляет сообщение в активный тикет и пересылает
// его администратору. Без активного тикета - подсказка начать с /start.
func (bh *BotHandler) forwardFreeChatMessage(message *tgbotapi.Message, text string) {
	chatID := message.Chat.ID
	if text == "" {
		return
	}

	ticket, found, err := bh.Deps.Store.GetTicket(chatID)
	if err != nil {
		log.Printf("forwardFreeChatMessage: Ошибка получения тикета %d: %v", chatID, err)
		bh.sendMessage(chatID, constants.StoreErrorMessage)
		return
	}
	if !found || !ticket.Active {
		bh.sendMessage(chatID, "👋 Use /start to open the support menu and create a ticket.")
		return
	}

	if err := bh.Deps.Store.AppendMessage(chatID, text, constants.SENDER_USER); err != nil {
		log.Printf("forwardFreeChatMessage: Ошибка записи сообщения для chatID %d: %v", chatID, err)
		bh.sendMessage(chatID, constants.StoreErrorMessage)
		return
	}

	bh.sendMessage(chatID, "📨 Message sent to support.")
	forward := formatters.FormatUserMessageForward(ticket, text)
	keyboard := bh.ticketActionKeyboard(chatID)
	bh.sendOrEditMessageHelper(bh.Deps.Config.AdminChatID, 0, forward, &keyboard)
}

// ticketActionKeyboard - кнопки быстрых действий под уведомлением о тикете.
func (bh *BotHandler) ticketActionKeyboard(targetChatID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(targetChatID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Reply", constants.CMD_QUICK_REPLY+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("🔒 Close", constants.CMD_QUICK_CLOSE+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("📜 History", constants.CMD_HISTORY+":"+id),
		),
	)
}
