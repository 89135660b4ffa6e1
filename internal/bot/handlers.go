package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weeksuntil/internal/models"
	"weeksuntil/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

const helpText = `Команды:
/start — регистрация и привязка Telegram
/done — отметить текущую неделю выполненной
/note — добавить заметку к текущей неделе
/status — показать статистику недель
/vacation ГГГГ-ММ-ДД ГГГГ-ММ-ДД — добавить отпуск
/dates ГГГГ-ММ-ДД ГГГГ-ММ-ДД — задать дату начала и дедлайн
/help — эта справка`

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	l := zerolog.Ctx(ctx)

	user, err := b.users.LinkTelegramUser(ctx, msg.From.ID, telegramName(msg.From))
	if err != nil {
		l.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("failed to resolve telegram user")
		b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, user, msg)
		return
	}

	b.handleConversation(ctx, chatID, user, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, user *models.User, msg *tgbotapi.Message) {
	command := msg.Command()
	trackCommand(command)

	// A command always aborts a pending conversation step.
	if err := b.states.ClearState(ctx, chatID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to clear chat state")
	}

	switch command {
	case "start":
		b.handleStart(ctx, chatID, user)
	case "done":
		b.handleDone(ctx, chatID, user)
	case "note":
		b.handleNote(ctx, chatID)
	case "status":
		b.handleStatus(ctx, chatID, user)
	case "vacation":
		b.handleVacation(ctx, chatID, user, msg.CommandArguments())
	case "dates":
		b.handleDates(ctx, chatID, user, msg.CommandArguments())
	case "help":
		b.reply(ctx, chatID, helpText)
	default:
		b.reply(ctx, chatID, "Неизвестная команда. /help покажет список.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, user *models.User) {
	text := fmt.Sprintf("👋 Привет! Твой символ в сетке: %s\n\n", user.Emoji)
	if user.HasDates() {
		text += "Даты уже заданы. /status покажет прогресс."
	} else {
		text += "Задай дату начала и дедлайн: /dates ГГГГ-ММ-ДД ГГГГ-ММ-ДД"
	}
	b.reply(ctx, chatID, text)
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, user *models.User) {
	wp, err := b.grid.MarkCurrentWeek(ctx, user.ID, true)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("failed to mark week")
		b.reply(ctx, chatID, "Не получилось отметить неделю. Попробуй позже.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("✅ Неделя с %s отмечена выполненной!", wp.WeekStartDate.Format(dateLayout)))
}

func (b *Bot) handleNote(ctx context.Context, chatID int64) {
	state := &models.ChatState{ChatID: chatID, Step: models.StepAwaitingNote}
	if err := b.states.SetState(ctx, state); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to set chat state")
		b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
		return
	}
	b.reply(ctx, chatID, "📝 Пришли текст заметки для текущей недели.")
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64, user *models.User) {
	if !user.HasDates() {
		b.reply(ctx, chatID, "Сначала задай даты: /dates ГГГГ-ММ-ДД ГГГГ-ММ-ДД")
		return
	}

	stats, err := b.grid.Stats(ctx, user.ID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("failed to compute stats")
		b.reply(ctx, chatID, "Не получилось посчитать статистику. Попробуй позже.")
		return
	}

	b.reply(ctx, chatID, renderStats(user, stats))
}

func renderStats(user *models.User, stats models.GridStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Недели до диплома:\n\n", user.Emoji))
	sb.WriteString(fmt.Sprintf("📆 Всего недель: %d\n", stats.TotalWeeks))
	sb.WriteString(fmt.Sprintf("🏖 Особых недель: %d\n", stats.SpecialWeeks))
	sb.WriteString(fmt.Sprintf("🎯 Рабочих недель: %d\n", stats.EffectiveWeeks))
	sb.WriteString(fmt.Sprintf("✅ Выполнено: %d\n", stats.CompletedWeeks))
	sb.WriteString(fmt.Sprintf("⏳ Осталось: %d", stats.RemainingWeeks))
	return sb.String()
}

func (b *Bot) handleVacation(ctx context.Context, chatID int64, user *models.User, args string) {
	start, end, err := parseDatePair(args)
	if err != nil {
		// No usable arguments: collect the dates step by step.
		state := &models.ChatState{ChatID: chatID, Step: models.StepAwaitingVacationStart}
		if err := b.states.SetState(ctx, state); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to set chat state")
			b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
			return
		}
		b.reply(ctx, chatID, "🏖 Пришли дату начала отпуска (ГГГГ-ММ-ДД).")
		return
	}

	b.createVacation(ctx, chatID, user, start, end)
}

func (b *Bot) createVacation(ctx context.Context, chatID int64, user *models.User, start, end time.Time) {
	if end.Before(start) {
		b.reply(ctx, chatID, "Дата окончания раньше даты начала. Попробуй ещё раз: /vacation")
		return
	}

	_, err := b.grid.CreatePeriod(ctx, user.ID, service.PeriodInput{
		StartDate:  start,
		EndDate:    end,
		PeriodType: models.PeriodVacation,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("failed to create vacation")
		b.reply(ctx, chatID, "Не получилось добавить отпуск. Попробуй позже.")
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("🏖 Отпуск с %s по %s добавлен.",
		start.Format(dateLayout), end.Format(dateLayout)))
}

func (b *Bot) handleDates(ctx context.Context, chatID int64, user *models.User, args string) {
	start, deadline, err := parseDatePair(args)
	if err != nil {
		state := &models.ChatState{ChatID: chatID, Step: models.StepAwaitingDates}
		if err := b.states.SetState(ctx, state); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to set chat state")
			b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
			return
		}
		b.reply(ctx, chatID, "📅 Пришли дату начала и дедлайн одной строкой: ГГГГ-ММ-ДД ГГГГ-ММ-ДД")
		return
	}

	b.saveDates(ctx, chatID, user, start, deadline)
}

func (b *Bot) saveDates(ctx context.Context, chatID int64, user *models.User, start, deadline time.Time) {
	if deadline.Before(start) {
		b.reply(ctx, chatID, "Дедлайн раньше даты начала. Попробуй ещё раз: /dates")
		return
	}

	_, err := b.users.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{
		StartDate: &start,
		Deadline:  &deadline,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("failed to update dates")
		b.reply(ctx, chatID, "Не получилось сохранить даты. Попробуй позже.")
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("📅 Даты сохранены: %s — %s. /status покажет прогресс.",
		start.Format(dateLayout), deadline.Format(dateLayout)))
}

// handleConversation routes free-form text through the pending step, if any.
func (b *Bot) handleConversation(ctx context.Context, chatID int64, user *models.User, text string) {
	state, err := b.states.GetState(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to load chat state")
		b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
		return
	}
	if state == nil {
		b.reply(ctx, chatID, "Не понимаю. /help покажет список команд.")
		return
	}

	switch state.Step {
	case models.StepAwaitingNote:
		b.finishNote(ctx, chatID, user, text)
	case models.StepAwaitingVacationStart:
		b.continueVacation(ctx, chatID, text)
	case models.StepAwaitingVacationEnd:
		b.finishVacation(ctx, chatID, user, state, text)
	case models.StepAwaitingDates:
		b.finishDates(ctx, chatID, user, text)
	default:
		b.clearState(ctx, chatID)
		b.reply(ctx, chatID, "Не понимаю. /help покажет список команд.")
	}
}

func (b *Bot) finishNote(ctx context.Context, chatID int64, user *models.User, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.reply(ctx, chatID, "Заметка пустая. Пришли текст ещё раз.")
		return
	}

	if _, err := b.grid.SetCurrentWeekNote(ctx, user.ID, text); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", user.ID).Msg("failed to save note")
		b.reply(ctx, chatID, "Не получилось сохранить заметку. Попробуй позже.")
		return
	}

	b.clearState(ctx, chatID)
	b.reply(ctx, chatID, "📝 Заметка сохранена.")
}

func (b *Bot) continueVacation(ctx context.Context, chatID int64, text string) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		b.reply(ctx, chatID, "Неверный формат даты. Нужен ГГГГ-ММ-ДД, например 2025-07-01.")
		return
	}

	state := &models.ChatState{
		ChatID:  chatID,
		Step:    models.StepAwaitingVacationEnd,
		Payload: map[string]string{"start_date": start.Format(dateLayout)},
	}
	if err := b.states.SetState(ctx, state); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to set chat state")
		b.reply(ctx, chatID, "Произошла ошибка. Попробуй позже.")
		return
	}

	b.reply(ctx, chatID, "Теперь пришли дату окончания (ГГГГ-ММ-ДД).")
}

func (b *Bot) finishVacation(ctx context.Context, chatID int64, user *models.User, state *models.ChatState, text string) {
	end, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		b.reply(ctx, chatID, "Неверный формат даты. Нужен ГГГГ-ММ-ДД, например 2025-07-14.")
		return
	}

	start, err := time.Parse(dateLayout, state.Payload["start_date"])
	if err != nil {
		b.clearState(ctx, chatID)
		b.reply(ctx, chatID, "Сессия устарела. Начни заново: /vacation")
		return
	}

	b.clearState(ctx, chatID)
	b.createVacation(ctx, chatID, user, start, end)
}

func (b *Bot) finishDates(ctx context.Context, chatID int64, user *models.User, text string) {
	start, deadline, err := parseDatePair(text)
	if err != nil {
		b.reply(ctx, chatID, "Нужны две даты: ГГГГ-ММ-ДД ГГГГ-ММ-ДД, например 2025-09-01 2026-06-30.")
		return
	}

	b.clearState(ctx, chatID)
	b.saveDates(ctx, chatID, user, start, deadline)
}

func (b *Bot) clearState(ctx context.Context, chatID int64) {
	if err := b.states.ClearState(ctx, chatID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to clear chat state")
	}
}

// parseDatePair extracts two YYYY-MM-DD dates from a command argument string.
func parseDatePair(args string) (time.Time, time.Time, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, errors.New("expected two dates")
	}

	first, err := time.Parse(dateLayout, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid first date: %w", err)
	}
	second, err := time.Parse(dateLayout, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid second date: %w", err)
	}
	return first, second, nil
}

func telegramName(from *tgbotapi.User) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return name
}
