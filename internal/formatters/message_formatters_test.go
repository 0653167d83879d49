package formatters

import (
	"strings"
	"testing"
	"time"

	"SupportBot/internal/constants"
	"SupportBot/internal/models"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		ChatID:      100,
		FirstName:   "Alice",
		Username:    "wonder",
		Category:    constants.CAT_WALLET,
		Active:      true,
		LastUpdated: time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestFormatNewTicketNotification(t *testing.T) {
	got := FormatNewTicketNotification(sampleTicket(), "abc123", "balance is frozen")

	for _, want := range []string{"ID: 100", "abc123", "balance is frozen", "/reply 100"} {
		if !strings.Contains(got, want) {
			t.Errorf("notification missing %q:\n%s", want, got)
		}
	}
}

func TestFormatNewTicketNotificationWithoutDetails(t *testing.T) {
	ticket := sampleTicket()
	ticket.Category = constants.CAT_SUPPORTCHAT
	got := FormatNewTicketNotification(ticket, "", "")

	if strings.Contains(got, "Wallet:") || strings.Contains(got, "Issue:") {
		t.Errorf("empty details must be omitted:\n%s", got)
	}
	if !strings.Contains(got, "ID: 100") {
		t.Errorf("notification must carry the user id:\n%s", got)
	}
}

func TestFormatTicketLinePreviewTruncated(t *testing.T) {
	ticket := sampleTicket()
	ticket.Messages = []models.TicketMessage{
		{Text: strings.Repeat("x", 200), Time: "12:00:00", From: constants.SENDER_USER},
	}

	got := FormatTicketLine(ticket)
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "📝 Last: ") {
			preview := strings.TrimPrefix(line, "📝 Last: ")
			if len([]rune(preview)) > constants.PreviewMaxLen {
				t.Errorf("preview too long: %d runes", len([]rune(preview)))
			}
			if !strings.HasSuffix(preview, "…") {
				t.Errorf("expected ellipsis in preview: %q", preview)
			}
			return
		}
	}
	t.Fatalf("no preview line in output:\n%s", got)
}

func TestFormatTicketLineUrgentMark(t *testing.T) {
	ticket := sampleTicket()
	for i := 0; i < constants.UrgentMessageThreshold; i++ {
		ticket.Messages = append(ticket.Messages, models.TicketMessage{Text: "ping", Time: "12:00:00", From: constants.SENDER_USER})
	}

	if !strings.Contains(FormatTicketLine(ticket), "urgent") {
		t.Error("expected urgent mark for busy ticket")
	}

	ticket.Messages = ticket.Messages[:1]
	if strings.Contains(FormatTicketLine(ticket), "urgent") {
		t.Error("quiet ticket must not be marked urgent")
	}
}

func TestFormatTicketsPageFilterLabel(t *testing.T) {
	tickets := []models.Ticket{sampleTicket()}

	// В заголовке показывается ярлык фильтра, а не сырой ключ категории.
	got := FormatTicketsPage(tickets, 0, 1, constants.CAT_WALLET)
	if !strings.Contains(got, "("+constants.CategoryDisplayMap[constants.CAT_WALLET]+")") {
		t.Errorf("header must carry the category label, got %q", got)
	}
	if strings.Contains(got, "("+constants.CAT_WALLET+")") {
		t.Errorf("header must not show the raw category key, got %q", got)
	}

	if got := FormatTicketsPage(tickets, 0, 1, constants.FILTER_URGENT); !strings.Contains(got, "🔥 Urgent") {
		t.Errorf("header must carry the urgent label, got %q", got)
	}
	header := strings.SplitN(FormatTicketsPage(tickets, 0, 1, constants.FILTER_ALL), "\n", 2)[0]
	if strings.Contains(header, "(") {
		t.Errorf("unfiltered header must have no filter suffix, got %q", header)
	}
}

func TestFormatHistory(t *testing.T) {
	ticket := sampleTicket()
	ticket.Messages = []models.TicketMessage{
		{Text: "help", Time: "10:00:00", From: constants.SENDER_USER},
		{Text: "on it", Time: "10:05:00", From: constants.SENDER_ADMIN},
	}

	got := FormatHistory(ticket)
	if !strings.Contains(got, "📥 [10:00:00] help") {
		t.Errorf("missing user line:\n%s", got)
	}
	if !strings.Contains(got, "📤 [10:05:00] on it") {
		t.Errorf("missing admin line:\n%s", got)
	}

	ticket.Messages = nil
	if !strings.Contains(FormatHistory(ticket), "No messages yet") {
		t.Error("empty history must say so")
	}
}

func TestFormatStats(t *testing.T) {
	stats := models.Stats{
		TotalUsers:    10,
		TotalTickets:  5,
		ActiveTickets: 3,
		ClosedTickets: 2,
		ByCategory:    map[string]int{constants.CAT_WALLET: 2, constants.CAT_SUPPORTCHAT: 1},
	}

	got := FormatStats(stats)
	for _, want := range []string{"Total Users: 10", "Total Tickets: 5", "Active Tickets: 3", "Closed Tickets: 2", constants.CategoryDisplayMap[constants.CAT_WALLET], constants.CategoryDisplayMap[constants.CAT_SUPPORTCHAT]} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q:\n%s", want, got)
		}
	}
}

func TestBuildTicketsWorkbook(t *testing.T) {
	closed := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		sampleTicket(),
		{ChatID: 200, FirstName: "Bob", Category: constants.CAT_OTHER, ClosedAt: &closed},
	}

	f, err := BuildTicketsWorkbook(tickets)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	id, err := f.GetCellValue("Tickets", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if id != "100" {
		t.Errorf("expected first data row id 100, got %q", id)
	}
	status, _ := f.GetCellValue("Tickets", "E3")
	if status != "closed" {
		t.Errorf("expected closed status for second row, got %q", status)
	}
}
