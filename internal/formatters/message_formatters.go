package formatters

import (
	"fmt"
	"strings"

	"SupportBot/internal/constants"
	"SupportBot/internal/models"
	"SupportBot/internal/utils"
)

// Форматирование исходящих текстов. Текст для пользователей - английский,
// как у аудитории бота.

// FormatWelcome - приветствие с предложением выбрать пункт меню.
func FormatWelcome(firstName string) string {
	return fmt.Sprintf("👋 Welcome %s!\n\n🎫 Choose one of the options below to continue:", firstName)
}

// FormatNewTicketNotification - уведомление администратору о новом тикете
// после сценария опроса. Содержит строку "ID: <n>" - по ней работает
// переопределение цели ответом на это сообщение.
func FormatNewTicketNotification(t models.Ticket, wallet, issue string) string {
	var b strings.Builder
	b.WriteString("🆕 NEW SUPPORT TICKET\n")
	fmt.Fprintf(&b, "👤 %s\n", utils.GetTicketDisplayName(t))
	fmt.Fprintf(&b, "🆔 ID: %d\n", t.ChatID)
	fmt.Fprintf(&b, "🏷 Category: %s\n", constants.CategoryDisplayMap[t.Category])
	if wallet != "" {
		fmt.Fprintf(&b, "💳 Wallet: %s\n", wallet)
	}
	if issue != "" {
		fmt.Fprintf(&b, "💭 Issue: \"%s\"\n", issue)
	}
	fmt.Fprintf(&b, "\n💡 Reply with: /reply %d your message", t.ChatID)
	return b.String()
}

// FormatUserMessageForward - пересылка сообщения пользователя администратору.
func FormatUserMessageForward(t models.Ticket, text string) string {
	return fmt.Sprintf("💬 Message from %s\n🆔 ID: %d\n\n💭 \"%s\"\n\n💡 Reply: /reply %d your message",
		utils.GetTicketDisplayName(t), t.ChatID, text, t.ChatID)
}

// FormatTicketLine - одна запись в списке /tickets.
func FormatTicketLine(t models.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", utils.GetTicketDisplayName(t))
	fmt.Fprintf(&b, "🆔 ID: %d\n", t.ChatID)
	fmt.Fprintf(&b, "🏷 %s", constants.CategoryDisplayMap[t.Category])
	if len(t.Messages) >= constants.UrgentMessageThreshold {
		b.WriteString("  🔥 urgent")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "💬 Messages: %d\n", len(t.Messages))
	if len(t.Messages) > 0 {
		last := t.Messages[len(t.Messages)-1]
		fmt.Fprintf(&b, "📝 Last: %s\n", utils.TruncateString(last.Text, constants.PreviewMaxLen))
	}
	fmt.Fprintf(&b, "🕐 Updated: %s\n", t.LastUpdated.Format("2006-01-02 15:04"))
	return b.String()
}

// FilterLabel переводит ключ фильтра списка в тот же ярлык, что на кнопках.
func FilterLabel(filter string) string {
	if label, ok := constants.CategoryDisplayMap[filter]; ok {
		return label
	}
	switch filter {
	case constants.FILTER_URGENT:
		return "🔥 Urgent"
	case constants.FILTER_RECENT:
		return "🕐 Recent"
	}
	return filter
}

// FormatTicketsPage - заголовок и записи страницы списка тикетов.
func FormatTicketsPage(tickets []models.Ticket, page, totalPages int, filter string) string {
	var b strings.Builder
	b.WriteString("🎫 Active Support Tickets")
	if filter != "" && filter != constants.FILTER_ALL {
		fmt.Fprintf(&b, " (%s)", FilterLabel(filter))
	}
	if totalPages > 1 {
		fmt.Fprintf(&b, " - page %d/%d", page+1, totalPages)
	}
	b.WriteString("\n\n")
	for _, t := range tickets {
		b.WriteString(FormatTicketLine(t))
		b.WriteString(strings.Repeat("─", 20))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHistory - полный лог сообщений тикета.
func FormatHistory(t models.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📜 History for %s (ID: %d)\n", utils.GetTicketDisplayName(t), t.ChatID)
	fmt.Fprintf(&b, "🏷 %s\n\n", constants.CategoryDisplayMap[t.Category])
	if len(t.Messages) == 0 {
		b.WriteString("No messages yet.")
		return b.String()
	}
	for _, m := range t.Messages {
		icon := "📥"
		if m.From == constants.SENDER_ADMIN {
			icon = "📤"
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", icon, m.Time, m.Text)
	}
	return b.String()
}

// FormatStats - статистика для /stats и дашборда.
func FormatStats(stats models.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Bot Statistics\n\n")
	fmt.Fprintf(&b, "👥 Total Users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "🎫 Total Tickets: %d\n", stats.TotalTickets)
	fmt.Fprintf(&b, "🟢 Active Tickets: %d\n", stats.ActiveTickets)
	fmt.Fprintf(&b, "✅ Closed Tickets: %d\n", stats.ClosedTickets)
	if len(stats.ByCategory) > 0 {
		b.WriteString("\n🏷 By category:\n")
		for _, cat := range constants.MenuCategories {
			if count, ok := stats.ByCategory[cat]; ok {
				fmt.Fprintf(&b, "  %s: %d\n", constants.CategoryDisplayMap[cat], count)
			}
		}
		if count, ok := stats.ByCategory[constants.CAT_SUPPORTCHAT]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", constants.CategoryDisplayMap[constants.CAT_SUPPORTCHAT], count)
		}
	}
	return b.String()
}

// FormatMyID - ответ на команду /myid.
func FormatMyID(chatID int64, firstName, lastName, username string) string {
	if username == "" {
		username = "No username"
	}
	return fmt.Sprintf("👤 Your Telegram Info:\n\n🆔 User ID: %d\n📱 Username: @%s\n👋 Name: %s %s",
		chatID, username, firstName, lastName)
}
