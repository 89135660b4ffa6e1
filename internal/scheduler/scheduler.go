// Package scheduler runs the weekly reminder sweep: once per configured
// weekday+hour it scans users who have not completed the current week and
// nudges them through the message sender. Sweeps never overlap; a trigger
// that fires mid-sweep is skipped, not queued.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"weeksuntil/internal/database"
	"weeksuntil/internal/grid"
	"weeksuntil/internal/metrics"
	"weeksuntil/internal/models"

	"github.com/rs/zerolog"
)

// ErrSweepRunning is returned when a trigger fires while a sweep is active.
var ErrSweepRunning = errors.New("reminder sweep already running")

const defaultReminderText = "👋 Привет! Не забудь отметить прогресс за эту неделю в Weeks Until Diploma!"

// Sender delivers a reminder to one recipient. The context carries the
// per-recipient timeout.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Store is the slice of the record store the scheduler reads. It writes
// nothing back.
type Store interface {
	ListActiveUsers(ctx context.Context) ([]*models.User, error)
	GetWeekProgress(ctx context.Context, userID int64, weekStart time.Time) (*models.WeekProgress, error)
}

type Scheduler struct {
	store       Store
	sender      Sender
	logger      zerolog.Logger
	weekday     time.Weekday
	hour        int
	sendTimeout time.Duration
	message     string

	nowFunc func() time.Time
	running atomic.Bool
}

func New(store Store, sender Sender, weekday time.Weekday, hour int, logger *zerolog.Logger) *Scheduler {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "scheduler").Logger()
	}
	return &Scheduler{
		store:       store,
		sender:      sender,
		logger:      base,
		weekday:     weekday,
		hour:        hour,
		sendTimeout: models.ReminderSendTimeout,
		message:     defaultReminderText,
		nowFunc:     time.Now,
	}
}

// Run blocks until ctx is done, firing a sweep at every weekly trigger.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Stringer("weekday", s.weekday).
		Int("hour", s.hour).
		Msg("reminder scheduler started")
	defer s.logger.Info().Msg("reminder scheduler stopped")

	timer := time.NewTimer(s.untilNextTrigger())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.RunSweep(ctx, s.nowFunc()); err != nil && !errors.Is(err, ErrSweepRunning) {
				s.logger.Error().Err(err).Msg("sweep failed")
			}
			timer.Reset(s.untilNextTrigger())
		}
	}
}

func (s *Scheduler) untilNextTrigger() time.Duration {
	now := s.nowFunc()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	next = next.AddDate(0, 0, int((s.weekday-now.Weekday()+7)%7))
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next.Sub(now)
}

// RunSweep executes one check-and-notify pass for the week containing
// asOf and returns how many users were notified. A sweep already in
// progress makes this a no-op returning ErrSweepRunning.
func (s *Scheduler) RunSweep(ctx context.Context, asOf time.Time) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("sweep trigger skipped: previous sweep still running")
		return 0, ErrSweepRunning
	}
	defer s.running.Store(false)

	weekStart := grid.WeekStart(asOf)
	log := s.logger.With().Str("week_start", weekStart.Format("2006-01-02")).Logger()

	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return 0, err
	}

	notified, failed := 0, 0
	for _, user := range users {
		if !user.CanReceiveReminders() {
			continue
		}

		done, err := s.weekCompleted(ctx, user.ID, weekStart)
		if err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("sweep: load progress")
			failed++
			continue
		}
		if done {
			continue
		}

		if err := s.send(ctx, user.TelegramID); err != nil {
			log.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("sweep: send reminder")
			metrics.IncReminderFailed()
			failed++
			continue
		}
		metrics.IncReminderSent()
		notified++
	}

	metrics.IncSweep()
	log.Info().Int("notified", notified).Int("failed", failed).Msg("sweep finished")
	return notified, nil
}

func (s *Scheduler) weekCompleted(ctx context.Context, userID int64, weekStart time.Time) (bool, error) {
	progress, err := s.store.GetWeekProgress(ctx, userID, weekStart)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return progress.IsCompleted, nil
}

func (s *Scheduler) send(ctx context.Context, chatID int64) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	return s.sender.SendMessage(sendCtx, chatID, s.message)
}
