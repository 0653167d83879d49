package handlers

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"SupportBot/internal/constants"
	"SupportBot/internal/formatters"
	"SupportBot/internal/models"
)

// SendMainMenu отправляет или редактирует главное меню поддержки.
func (bh *BotHandler) SendMainMenu(chatID int64, messageIDToEdit int, firstName string) {
	log.Printf("BotHandler.SendMainMenu для chatID %d, messageIDToEdit: %d", chatID, messageIDToEdit)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range constants.MenuCategories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(constants.CategoryDisplayMap[cat], constants.CMD_MENU+":"+cat),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💬 Contact Support", constants.CMD_CONTACT_SUPPORT),
	))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	text := formatters.FormatWelcome(firstName)
	if _, err := bh.sendOrEditMessageHelper(chatID, messageIDToEdit, text, &keyboard); err != nil {
		log.Printf("SendMainMenu: Ошибка отправки меню для chatID %d: %v", chatID, err)
	}
}

// StartCategoryDialogue начинает сценарий опроса для выбранной категории:
// запоминает категорию и переводит пользователя в ожидание адреса кошелька.
func (bh *BotHandler) StartCategoryDialogue(chatID int64, messageIDToEdit int, category string) {
	if _, ok := constants.CategoryDisplayMap[category]; !ok || category == constants.CAT_SUPPORTCHAT {
		log.Printf("StartCategoryDialogue: Неизвестная категория '%s' от chatID %d", category, chatID)
		bh.sendErrorMessageHelper(chatID, messageIDToEdit, "❌ Unknown option. Please use /start to open the menu.")
		return
	}

	tempData := bh.Deps.SessionManager.GetTempTicket(chatID)
	tempData.Category = category
	tempData.Wallet = ""
	bh.Deps.SessionManager.UpdateTempTicket(chatID, tempData)
	bh.Deps.SessionManager.SetState(chatID, constants.STATE_SUPPORT_WALLET)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", constants.CMD_BACK_MAIN),
		),
	)
	text := fmt.Sprintf("%s\n\n💳 Please send your wallet address:", constants.CategoryDisplayMap[category])
	bh.sendOrEditMessageHelper(chatID, messageIDToEdit, text, &keyboard)
}

// StartSupportChat создает тикет немедленно и включает режим свободной переписки.
func (bh *BotHandler) StartSupportChat(chatID int64, messageIDToEdit int, from *tgbotapi.User) {
	ticket := models.Ticket{
		ChatID:   chatID,
		Category: constants.CAT_SUPPORTCHAT,
		Active:   true,
	}
	if from != nil {
		ticket.Username = from.UserName
		ticket.FirstName = from.FirstName
		ticket.LastName = from.LastName
	}
	if err := bh.Deps.Store.UpsertTicket(ticket); err != nil {
		log.Printf("StartSupportChat: Ошибка создания тикета для chatID %d: %v", chatID, err)
		bh.sendErrorMessageHelper(chatID, messageIDToEdit, constants.StoreErrorMessage)
		return
	}

	bh.Deps.SessionManager.ClearState(chatID)
	bh.Deps.SessionManager.ClearTempTicket(chatID)

	bh.sendOrEditMessageHelper(chatID, messageIDToEdit,
		"💬 You are now connected to support.\n\nType your message and our team will get back to you. Use /stop to end the conversation.", nil)

	if stored, found, err := bh.Deps.Store.GetTicket(chatID); err == nil && found {
		bh.sendMessage(bh.Deps.Config.AdminChatID, formatters.FormatNewTicketNotification(stored, "", ""))
	}
}
