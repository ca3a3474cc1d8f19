// Package telegram sends monitor alerts to an admin chat.
package telegram

import (
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram bot API.
type Bot struct {
	api         *tgbotapi.BotAPI
	adminChatID int64
}

// New creates a Bot. Returns nil if token is empty (Telegram disabled).
// timeout bounds each API call; zero means no explicit bound.
func New(token string, adminChatID int64, timeout time.Duration) (*Bot, error) {
	if token == "" {
		return nil, nil
	}
	client := http.DefaultClient
	if timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram.New: %w", err)
	}
	return &Bot{api: api, adminChatID: adminChatID}, nil
}

// Send sends a plain text message to the admin chat.
func (b *Bot) Send(msg string) error {
	if b == nil {
		return nil
	}
	m := tgbotapi.NewMessage(b.adminChatID, msg)
	m.ParseMode = "Markdown"
	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("telegram.Send: %w", err)
	}
	return nil
}
