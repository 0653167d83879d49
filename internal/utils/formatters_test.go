package utils

import (
	"strings"
	"testing"

	"SupportBot/internal/models"
)

func TestGetTicketDisplayName(t *testing.T) {
	cases := []struct {
		name   string
		ticket models.Ticket
		want   string
	}{
		{"full profile", models.Ticket{ChatID: 1, FirstName: "Alice", LastName: "Smith", Username: "wonder"}, "Alice Smith (@wonder)"},
		{"no username", models.Ticket{ChatID: 1, FirstName: "Alice"}, "Alice"},
		{"only username", models.Ticket{ChatID: 1, Username: "wonder"}, "@wonder"},
		{"empty profile", models.Ticket{ChatID: 42}, "User 42"},
	}
	for _, tc := range cases {
		if got := GetTicketDisplayName(tc.ticket); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("short string must pass through, got %q", got)
	}

	got := TruncateString(strings.Repeat("a", 100), 10)
	if len([]rune(got)) != 10 {
		t.Errorf("expected 10 runes, got %d (%q)", len([]rune(got)), got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}

	// Многобайтовые руны не должны резаться посередине.
	got = TruncateString(strings.Repeat("я", 100), 10)
	if len([]rune(got)) != 10 {
		t.Errorf("expected 10 runes for cyrillic, got %d (%q)", len([]rune(got)), got)
	}
}

func TestGenerateBotLink(t *testing.T) {
	link, err := GenerateBotLink("support_bot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://t.me/support_bot" {
		t.Errorf("unexpected link: %q", link)
	}

	if _, err := GenerateBotLink(""); err == nil {
		t.Error("expected error for empty username")
	}
}

func TestGenerateBotQRCode(t *testing.T) {
	png, err := GenerateBotQRCode("support_bot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected non-empty png payload")
	}
}
