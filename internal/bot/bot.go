// Package bot runs the Telegram long-poll loop: registration on first
// contact, week marks, notes, vacations and the grid status view.
package bot

import (
	"context"
	"time"

	"weeksuntil/internal/config"
	"weeksuntil/internal/metrics"
	"weeksuntil/internal/models"
	"weeksuntil/internal/repository"
	"weeksuntil/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// updateTimeout bounds the handling of a single update.
const updateTimeout = 30 * time.Second

// API is the slice of the Telegram client the bot loop uses.
type API interface {
	Self() tgbotapi.User
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Bot struct {
	api    API
	users  *service.UserService
	grid   *service.GridService
	states repository.StateRepository
	config *config.Config
	logger *zerolog.Logger
}

func NewBot(
	api API,
	users *service.UserService,
	grid *service.GridService,
	states repository.StateRepository,
	config *config.Config,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Bot{
		api:    api,
		users:  users,
		grid:   grid,
		states: states,
		config: config,
		logger: logger,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.api.Self().UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("bot stopping")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		chatID := update.Message.Chat.ID
		allowed, err := b.states.CheckRateLimit(updateCtx, chatID, models.RateLimitMessages, models.RateLimitWindow)
		if err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("rate limit check failed")
		} else if !allowed {
			l.Warn().Int64("chat_id", chatID).Msg("rate limit exceeded")
			b.reply(updateCtx, chatID, "⚠️ Слишком много сообщений. Подожди немного.")
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

func (b *Bot) withRecovery(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("recovered from panic in update handler")
		}
	}()
	fn()
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}

func trackCommand(command string) {
	metrics.IncBotCommand(command)
}
