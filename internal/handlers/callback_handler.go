package handlers

import (
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"SupportBot/internal/constants"
)

// callbackCommand - разобранные данные кнопки. Данные имеют вид
// "команда:аргумент"; разбор выполняется один раз на входе, дальше
// обработчики работают только со структурой.
type callbackCommand struct {
	Command string
	Arg     string
}

// parseCallbackData разбирает строку данных кнопки на команду и аргумент.
func parseCallbackData(data string) callbackCommand {
	command, arg, _ := strings.Cut(data, ":")
	return callbackCommand{Command: command, Arg: arg}
}

// HandleCallback обрабатывает нажатия инлайн-кнопок.
func (bh *BotHandler) HandleCallback(update tgbotapi.Update) {
	if update.CallbackQuery == nil {
		return
	}
	query := update.CallbackQuery
	if query.Message == nil {
		bh.answerCallback(query.ID, "")
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	cmd := parseCallbackData(query.Data)

	log.Printf("HandleCallback: ChatID=%d, MessageID=%d, Command='%s', Arg='%s'", chatID, messageID, cmd.Command, cmd.Arg)

	bh.answerCallback(query.ID, "")

	switch cmd.Command {
	case constants.CMD_NOOP:
		return

	case constants.CMD_MENU:
		bh.StartCategoryDialogue(chatID, messageID, cmd.Arg)
		return

	case constants.CMD_CONTACT_SUPPORT:
		bh.StartSupportChat(chatID, messageID, query.From)
		return

	case constants.CMD_BACK_MAIN:
		bh.Deps.SessionManager.ClearState(chatID)
		bh.Deps.SessionManager.ClearTempTicket(chatID)
		var firstName string
		if query.From != nil {
			firstName = query.From.FirstName
		}
		bh.SendMainMenu(chatID, messageID, firstName)
		return
	}

	// Дальше только кнопки административной консоли.
	if !bh.isAdmin(chatID) {
		log.Printf("HandleCallback: Отказ в доступе к '%s' для chatID %d", cmd.Command, chatID)
		bh.sendMessage(chatID, constants.AccessDeniedMessage)
		return
	}

	switch cmd.Command {
	case constants.CMD_QUICK_REPLY:
		targetID, err := strconv.ParseInt(cmd.Arg, 10, 64)
		if err != nil {
			log.Printf("HandleCallback: Некорректный аргумент quick_reply '%s'", cmd.Arg)
			return
		}
		session := bh.Deps.SessionManager.GetAdminSession(chatID)
		session.QuickReplyTarget = targetID
		bh.Deps.SessionManager.UpdateAdminSession(chatID, session)
		bh.sendMessage(chatID, "💬 Send your reply as a plain message, it will go to the selected user.")

	case constants.CMD_QUICK_CLOSE:
		targetID, err := strconv.ParseInt(cmd.Arg, 10, 64)
		if err != nil {
			log.Printf("HandleCallback: Некорректный аргумент quick_close '%s'", cmd.Arg)
			return
		}
		bh.closeTicketByAdmin(chatID, targetID, 0)
		// Список под кнопкой мог остаться открытым, обновляем его.
		bh.SendTicketList(chatID, messageID)

	case constants.CMD_HISTORY:
		targetID, err := strconv.ParseInt(cmd.Arg, 10, 64)
		if err != nil {
			log.Printf("HandleCallback: Некорректный аргумент history '%s'", cmd.Arg)
			return
		}
		bh.SendTicketHistory(chatID, targetID)

	case constants.CMD_TICKETS_PAGE:
		page, err := strconv.Atoi(cmd.Arg)
		if err != nil {
			log.Printf("HandleCallback: Некорректный номер страницы '%s'", cmd.Arg)
			return
		}
		session := bh.Deps.SessionManager.GetAdminSession(chatID)
		session.Page = page
		bh.Deps.SessionManager.UpdateAdminSession(chatID, session)
		bh.SendTicketList(chatID, messageID)

	case constants.CMD_FILTER:
		session := bh.Deps.SessionManager.GetAdminSession(chatID)
		session.Filter = cmd.Arg
		session.Page = 0
		bh.Deps.SessionManager.UpdateAdminSession(chatID, session)
		bh.SendTicketList(chatID, messageID)

	default:
		log.Printf("HandleCallback: Неизвестная команда '%s' от chatID %d", cmd.Command, chatID)
	}
}
