package telegram_api

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// SendOrEditMessage пытается отредактировать существующее сообщение или отправляет новое.
// Если редактирование не удалось из-за "message is not modified", возвращает "фиктивный"
// Message объект с ID оригинального сообщения и nil в качестве ошибки.
func SendOrEditMessage(
	sender Sender,
	chatID int64,
	messageIDToTryEdit int,
	text string,
	keyboard *tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	if sender == nil {
		log.Println("SendOrEditMessage: Sender не инициализирован.")
		return tgbotapi.Message{}, fmt.Errorf("sender не инициализирован")
	}

	var originalMsgObject tgbotapi.Message
	if messageIDToTryEdit != 0 {
		var chatObj tgbotapi.Chat
		chatObj.ID = chatID
		originalMsgObject.Chat = chatObj
		originalMsgObject.MessageID = messageIDToTryEdit
		originalMsgObject.Text = text
	}

	if messageIDToTryEdit != 0 {
		var editMsgConfig tgbotapi.EditMessageTextConfig
		if keyboard != nil {
			editMsgConfig = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageIDToTryEdit, text, *keyboard)
		} else {
			editMsgConfig = tgbotapi.NewEditMessageText(chatID, messageIDToTryEdit, text)
		}

		_, err := sender.Request(editMsgConfig)
		if err == nil {
			return originalMsgObject, nil
		}

		if strings.Contains(err.Error(), "message is not modified") {
			// Контент не изменился - не ошибка для нас.
			return originalMsgObject, nil
		}
		if strings.Contains(err.Error(), "message to edit not found") {
			log.Printf("SendOrEditMessage: Сообщение %d для chatID %d не найдено, будет отправлено новое.", messageIDToTryEdit, chatID)
		} else {
			log.Printf("SendOrEditMessage: НЕОЖИДАННАЯ ОШИБКА редактирования chatID=%d, MessageID=%d: %v. Будет отправлено новое.", chatID, messageIDToTryEdit, err)
		}
	}

	newMsg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		newMsg.ReplyMarkup = keyboard
	}

	actualSentMsg, err := sender.Send(newMsg)
	if err != nil {
		log.Printf("SendOrEditMessage: ОШИБКА отправки нового сообщения для chatID %d: %v", chatID, err)
		return tgbotapi.Message{}, err
	}
	return actualSentMsg, nil
}
