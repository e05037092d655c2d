// Package telegram provides a client for sending rate-comparison digests via
// Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ldelia/ratewatch/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a search failure notification.
func (c *Client) SendError(searchErr error) error {
	text := fmt.Sprintf("⚠️ *Rate search error*\n`%s`", escapeMarkdownV2(searchErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendDigest sends the competitive-position digest for one search action.
func (c *Client) SendDigest(referenceName, currency string, summaries []models.CompetitiveSummary, alerts []models.Alert) error {
	return c.sendMarkdownV2(formatDigest(referenceName, currency, summaries, alerts))
}

var severityEmoji = map[models.Severity]string{
	models.SeverityInfo:    "ℹ️",
	models.SeveritySuccess: "✅",
	models.SeverityWarning: "⚠️",
}

// formatDigest formats summaries and alerts into a Telegram MarkdownV2
// message.
func formatDigest(referenceName, currency string, summaries []models.CompetitiveSummary, alerts []models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏨 *Rate check: %s*\n\n", escapeMarkdownV2(referenceName))

	for _, s := range summaries {
		name := escapeMarkdownV2(s.PropertyName)
		if !s.Available {
			fmt.Fprintf(&b, "▫️ %s — no rates available\n", name)
			continue
		}
		minStr := escapeMarkdownV2(fmt.Sprintf("%.2f %s", s.Min, currency))
		fmt.Fprintf(&b, "▫️ %s — from *%s* via %s \\(%d OTAs\\)\n",
			name, minStr, escapeMarkdownV2(s.BestDistributor), s.DistributorCount)

		if s.Reference != nil {
			devStr := escapeMarkdownV2(fmt.Sprintf("%+.1f%%", s.Reference.DeviationVsMarket))
			fmt.Fprintf(&b, "   📊 rank %d, %s vs market\n", s.Reference.Rank, devStr)
		}
	}

	if len(alerts) > 0 {
		b.WriteString("\n")
		for _, a := range alerts {
			emoji, ok := severityEmoji[a.Severity]
			if !ok {
				emoji = "ℹ️"
			}
			fmt.Fprintf(&b, "%s %s\n", emoji, escapeMarkdownV2(strings.ReplaceAll(a.Code, "_", " ")))
		}
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
