package handlers

import (
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"SupportBot/internal/config"
	"SupportBot/internal/session"
	"SupportBot/internal/storage"
	"SupportBot/internal/telegram_api"
)

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
// HandlerDependencies contains all dependencies required for handlers.
type HandlerDependencies struct {
	Config         *config.Config
	BotClient      telegram_api.Sender
	SessionManager *session.SessionManager
	Store          storage.Store
}

// BotHandler инкапсулирует логику обработки сообщений и коллбэков.
// BotHandler encapsulates the logic for handling messages and callbacks.
type BotHandler struct {
	Deps HandlerDependencies
}

// NewBotHandler создает новый экземпляр BotHandler.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	if deps.Config == nil || deps.BotClient == nil || deps.SessionManager == nil || deps.Store == nil {
		// Критическая ошибка конфигурации, приложение не сможет работать корректно.
		// Critical configuration error; the application cannot work correctly.
		panic("Не все зависимости для BotHandler были предоставлены.")
	}
	return &BotHandler{Deps: deps}
}

// isAdmin проверяет, является ли chatID администратором бота.
func (bh *BotHandler) isAdmin(chatID int64) bool {
	return chatID == bh.Deps.Config.AdminChatID
}

// sendMessage отправляет простое текстовое сообщение без клавиатуры.
func (bh *BotHandler) sendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	sentMsg, err := bh.Deps.BotClient.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		log.Printf("sendMessage: Ошибка отправки сообщения для chatID %d: %v", chatID, err)
	}
	return sentMsg, err
}

// sendOrEditMessageHelper отправляет или редактирует сообщение с клавиатурой.
func (bh *BotHandler) sendOrEditMessageHelper(chatID int64, messageIDToTryEdit int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return telegram_api.SendOrEditMessage(bh.Deps.BotClient, chatID, messageIDToTryEdit, text, keyboard)
}

// sendErrorMessageHelper отправляет сообщение об ошибке пользователю.
func (bh *BotHandler) sendErrorMessageHelper(chatID int64, messageIDToEdit int, errorText string) (tgbotapi.Message, error) {
	return telegram_api.SendOrEditMessage(bh.Deps.BotClient, chatID, messageIDToEdit, errorText, nil)
}

// answerCallback закрывает "часики" на кнопке после обработки коллбэка.
func (bh *BotHandler) answerCallback(queryID, text string) {
	callback := tgbotapi.NewCallback(queryID, text)
	if _, err := bh.Deps.BotClient.Request(callback); err != nil {
		log.Printf("answerCallback: Ошибка ответа на callback %s: %v", queryID, err)
	}
}

// upsertUserFromMessage обновляет профиль пользователя при каждом входящем сообщении.
func (bh *BotHandler) upsertUserFromMessage(message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	err := bh.Deps.Store.UpsertUser(message.Chat.ID, message.From.FirstName, message.From.LastName, message.From.UserName)
	if err != nil {
		log.Printf("upsertUserFromMessage: Ошибка сохранения пользователя %d: %v", message.Chat.ID, err)
	}
}
