package service

import (
	"context"
	"time"

	"weeksuntil/internal/database"
	"weeksuntil/internal/grid"
	"weeksuntil/internal/models"

	"github.com/rs/zerolog"
)

// GridService serves week marks, special periods and derived statistics.
// It runs in per-user mode: the target user's own dates and periods feed
// the calculator, completion is per-user as well.
type GridService struct {
	db     *database.DB
	logger zerolog.Logger

	nowFunc func() time.Time
}

func NewGridService(db *database.DB, logger *zerolog.Logger) *GridService {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "grid-service").Logger()
	}
	return &GridService{
		db:      db,
		logger:  base,
		nowFunc: time.Now,
	}
}

// CurrentWeekStart returns the Monday of the week containing "today".
func (s *GridService) CurrentWeekStart() time.Time {
	return grid.WeekStart(s.nowFunc())
}

type WeekInput struct {
	WeekStartDate time.Time
	IsCompleted   bool
	Note          string
}

// UpsertWeek records the caller's mark for the current week. Any other
// week, or a non-Monday date, is rejected rather than silently corrected.
func (s *GridService) UpsertWeek(ctx context.Context, userID int64, in WeekInput) (*models.WeekProgress, error) {
	weekStart := grid.DateOnly(in.WeekStartDate)
	if weekStart.Weekday() != time.Monday {
		return nil, ErrNotMonday
	}
	if !weekStart.Equal(s.CurrentWeekStart()) {
		return nil, ErrNotCurrentWeek
	}

	wp := &models.WeekProgress{
		UserID:        userID,
		WeekStartDate: weekStart,
		IsCompleted:   in.IsCompleted,
		Note:          in.Note,
	}
	if err := s.db.UpsertWeekProgress(ctx, wp); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Bool("completed", wp.IsCompleted).
		Msg("week progress upserted")
	return wp, nil
}

// MarkCurrentWeek is the bot shortcut: mark the current week completed,
// keeping an existing note.
func (s *GridService) MarkCurrentWeek(ctx context.Context, userID int64, completed bool) (*models.WeekProgress, error) {
	note := ""
	if existing, err := s.db.GetWeekProgress(ctx, userID, s.CurrentWeekStart()); err == nil {
		note = existing.Note
	}
	return s.UpsertWeek(ctx, userID, WeekInput{
		WeekStartDate: s.CurrentWeekStart(),
		IsCompleted:   completed,
		Note:          note,
	})
}

// SetCurrentWeekNote stores a note on the current week, keeping the
// completion flag.
func (s *GridService) SetCurrentWeekNote(ctx context.Context, userID int64, note string) (*models.WeekProgress, error) {
	completed := false
	if existing, err := s.db.GetWeekProgress(ctx, userID, s.CurrentWeekStart()); err == nil {
		completed = existing.IsCompleted
	}
	return s.UpsertWeek(ctx, userID, WeekInput{
		WeekStartDate: s.CurrentWeekStart(),
		IsCompleted:   completed,
		Note:          note,
	})
}

func (s *GridService) ListWeeks(ctx context.Context, userID int64) ([]*models.WeekProgress, error) {
	return s.db.ListWeekProgress(ctx, userID)
}

func (s *GridService) ListPeriods(ctx context.Context, userID int64) ([]models.SpecialPeriod, error) {
	return s.db.ListSpecialPeriods(ctx, userID)
}

type PeriodInput struct {
	StartDate   time.Time
	EndDate     time.Time
	PeriodType  string
	Description string
}

func (s *GridService) CreatePeriod(ctx context.Context, userID int64, in PeriodInput) (*models.SpecialPeriod, error) {
	periodType := in.PeriodType
	if periodType == "" {
		periodType = models.PeriodOther
	}
	p := &models.SpecialPeriod{
		UserID:      userID,
		StartDate:   grid.DateOnly(in.StartDate),
		EndDate:     grid.DateOnly(in.EndDate),
		PeriodType:  periodType,
		Description: in.Description,
	}
	if err := s.db.CreateSpecialPeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePeriod removes a period when the actor owns it or is the admin.
func (s *GridService) DeletePeriod(ctx context.Context, actor *models.User, periodID int64) error {
	p, err := s.db.GetSpecialPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if p.UserID != actor.ID && !actor.IsAdmin {
		return ErrPermissionDenied
	}
	return s.db.DeleteSpecialPeriod(ctx, periodID)
}

// Stats derives the countdown statistics for one user. Pure recomputation
// on every call; nothing is cached.
func (s *GridService) Stats(ctx context.Context, userID int64) (models.GridStats, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return models.GridStats{}, err
	}

	periods, err := s.db.ListSpecialPeriods(ctx, userID)
	if err != nil {
		return models.GridStats{}, err
	}

	completed, err := s.db.CountCompletedWeeks(ctx, userID)
	if err != nil {
		return models.GridStats{}, err
	}

	return grid.ComputeStats(grid.RangeOf(user), periods, completed), nil
}
