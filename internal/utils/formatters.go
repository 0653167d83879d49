package utils

import (
	"fmt"
	"strings"

	"SupportBot/internal/models"
)

// GetTicketDisplayName формирует отображаемое имя владельца тикета.
func GetTicketDisplayName(t models.Ticket) string {
	nameParts := []string{}
	if t.FirstName != "" {
		nameParts = append(nameParts, t.FirstName)
	}
	if t.LastName != "" {
		nameParts = append(nameParts, t.LastName)
	}
	name := strings.TrimSpace(strings.Join(nameParts, " "))

	if name == "" {
		if t.Username != "" {
			name = "@" + t.Username
		} else {
			name = fmt.Sprintf("User %d", t.ChatID)
		}
	} else if t.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, t.Username)
	}
	return name
}

// TruncateString обрезает строку до maxLen символов (рун) с многоточием.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
