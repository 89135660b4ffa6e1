// Package telegram wraps the Bot API client behind the small interfaces
// the bot loop and the reminder scheduler actually need.
package telegram

import (
	"context"
	"fmt"

	"weeksuntil/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Client struct {
	api    *tgbotapi.BotAPI
	logger zerolog.Logger
}

func NewClient(cfg config.TelegramConfig, logger *zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	api.Debug = cfg.Debug

	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "telegram").Logger()
	}
	base.Info().Str("username", api.Self.UserName).Msg("authorized on account")

	return &Client{api: api, logger: base}, nil
}

func (c *Client) Self() tgbotapi.User {
	return c.api.Self
}

func (c *Client) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

// SendMessage sends plain text to a chat. The underlying client has no
// context support, so cancellation is honored at the call boundary only.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
