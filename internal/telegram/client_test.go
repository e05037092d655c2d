package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatDigest(t *testing.T) {
	summaries := []models.CompetitiveSummary{
		{
			PropertyID:       "A",
			PropertyName:     "VOI Alimini",
			Min:              100,
			Max:              120,
			Mean:             110,
			BestDistributor:  "Booking.com",
			DistributorCount: 5,
			Available:        true,
			Reference: &models.ReferenceKPIs{
				Rank:              2,
				MarketAverage:     105,
				DeviationVsMarket: -4.76,
			},
		},
		{PropertyID: "D", PropertyName: "Thalas Club", Available: false},
	}
	alerts := []models.Alert{
		{Severity: models.SeverityWarning, Code: models.AlertWideSpread},
	}

	msg := formatDigest("VOI Alimini", "EUR", summaries, alerts)

	for _, want := range []string{
		"VOI Alimini",
		"Booking\\.com",
		"no rates available",
		"rank 2",
		"wide spread",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
	// Unescaped markdown metacharacters would make Telegram reject the send.
	if strings.Contains(msg, " 100.00 ") {
		t.Error("digest contains unescaped decimal point")
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// The chat ID parse failure path; the bot token check happens upstream.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}
