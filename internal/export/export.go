// Package export renders the cohort grid into an xlsx workbook: one row
// per active user, one column per recorded week, plus a stats sheet.
package export

import (
	"context"
	"fmt"
	"sort"
	"time"

	"weeksuntil/internal/database"
	"weeksuntil/internal/grid"
	"weeksuntil/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	gridSheet  = "Grid"
	statsSheet = "Stats"
	dateLayout = "2006-01-02"
)

type Generator struct {
	db     *database.DB
	logger zerolog.Logger
}

func NewGenerator(db *database.DB, logger *zerolog.Logger) *Generator {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "export").Logger()
	}
	return &Generator{db: db, logger: base}
}

// CohortGrid builds the workbook for all active users and returns the
// serialized xlsx bytes.
func (g *Generator) CohortGrid(ctx context.Context) ([]byte, error) {
	users, err := g.db.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	weeksByUser := make(map[int64][]*models.WeekProgress, len(users))
	for _, u := range users {
		weeks, err := g.db.ListWeekProgress(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		weeksByUser[u.ID] = weeks
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", gridSheet)
	if err := g.writeGridSheet(f, users, weeksByUser); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, fmt.Errorf("failed to create stats sheet: %w", err)
	}
	if err := g.writeStatsSheet(ctx, f, users); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	g.logger.Info().Int("users", len(users)).Msg("cohort grid exported")
	return buf.Bytes(), nil
}

// weekColumns collects the distinct week start dates across the cohort,
// sorted ascending.
func weekColumns(weeksByUser map[int64][]*models.WeekProgress) []time.Time {
	seen := make(map[time.Time]bool)
	for _, weeks := range weeksByUser {
		for _, wp := range weeks {
			seen[wp.WeekStartDate] = true
		}
	}

	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (g *Generator) writeGridSheet(f *excelize.File, users []*models.User, weeksByUser map[int64][]*models.WeekProgress) error {
	columns := weekColumns(weeksByUser)

	header := []any{"User", "Emoji", "Start", "Deadline"}
	for _, d := range columns {
		header = append(header, d.Format(dateLayout))
	}
	if err := setRow(f, gridSheet, 1, header); err != nil {
		return err
	}

	for i, u := range users {
		byWeek := make(map[time.Time]*models.WeekProgress)
		for _, wp := range weeksByUser[u.ID] {
			byWeek[wp.WeekStartDate] = wp
		}

		row := []any{displayName(u), u.Emoji, formatDatePtr(u.StartDate), formatDatePtr(u.Deadline)}
		for _, d := range columns {
			row = append(row, cellValue(byWeek[d]))
		}
		if err := setRow(f, gridSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func (g *Generator) writeStatsSheet(ctx context.Context, f *excelize.File, users []*models.User) error {
	header := []any{"User", "Emoji", "Total", "Special", "Effective", "Completed", "Remaining"}
	if err := setRow(f, statsSheet, 1, header); err != nil {
		return err
	}

	for i, u := range users {
		periods, err := g.db.ListSpecialPeriods(ctx, u.ID)
		if err != nil {
			return err
		}
		completed, err := g.db.CountCompletedWeeks(ctx, u.ID)
		if err != nil {
			return err
		}
		stats := grid.ComputeStats(grid.RangeOf(u), periods, completed)

		row := []any{
			displayName(u), u.Emoji,
			stats.TotalWeeks, stats.SpecialWeeks, stats.EffectiveWeeks,
			stats.CompletedWeeks, stats.RemainingWeeks,
		}
		if err := setRow(f, statsSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func cellValue(wp *models.WeekProgress) string {
	if wp == nil {
		return ""
	}
	mark := ""
	if wp.IsCompleted {
		mark = "✅"
	}
	if wp.Note != "" {
		if mark != "" {
			return mark + " " + wp.Note
		}
		return wp.Note
	}
	return mark
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("tg_%d", u.TelegramID)
}

func formatDatePtr(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}
