package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weeksuntil/internal/models"
)

// UpsertWeekProgress inserts or updates the mark for (user, week).
// The current-week-only rule is enforced by the service layer; the store
// accepts any Monday.
func (db *DB) UpsertWeekProgress(ctx context.Context, wp *models.WeekProgress) error {
	query := `INSERT INTO week_progress (
                user_id, week_start_date, is_completed, note, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT(user_id, week_start_date) DO UPDATE SET
                is_completed = excluded.is_completed,
                note = excluded.note,
                updated_at = excluded.updated_at`

	now := time.Now()
	if _, err := db.ExecContext(ctx, query,
		wp.UserID,
		wp.WeekStartDate.Format(dateLayout),
		wp.IsCompleted,
		wp.Note,
		now,
		now,
	); err != nil {
		return fmt.Errorf("failed to upsert week progress: %w", err)
	}

	stored, err := db.GetWeekProgress(ctx, wp.UserID, wp.WeekStartDate)
	if err != nil {
		return err
	}
	*wp = *stored
	return nil
}

func (db *DB) GetWeekProgress(ctx context.Context, userID int64, weekStart time.Time) (*models.WeekProgress, error) {
	query := `SELECT id, user_id, week_start_date, is_completed, note, created_at, updated_at
              FROM week_progress WHERE user_id = ? AND week_start_date = ?`

	row := db.QueryRowContext(ctx, query, userID, weekStart.Format(dateLayout))
	wp, err := scanWeekProgress(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query week progress: %w", err)
	}
	return wp, nil
}

func (db *DB) ListWeekProgress(ctx context.Context, userID int64) ([]*models.WeekProgress, error) {
	query := `SELECT id, user_id, week_start_date, is_completed, note, created_at, updated_at
              FROM week_progress WHERE user_id = ? ORDER BY week_start_date`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list week progress: %w", err)
	}
	defer rows.Close()

	var weeks []*models.WeekProgress
	for rows.Next() {
		wp, err := scanWeekProgress(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan week progress: %w", err)
		}
		weeks = append(weeks, wp)
	}
	return weeks, rows.Err()
}

// CountCompletedWeeks counts completed marks for a user regardless of
// whether the weeks fall inside the tracked range.
func (db *DB) CountCompletedWeeks(ctx context.Context, userID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM week_progress WHERE user_id = ? AND is_completed = 1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed weeks: %w", err)
	}
	return n, nil
}

func scanWeekProgress(scan func(dest ...any) error) (*models.WeekProgress, error) {
	var (
		wp      models.WeekProgress
		dateStr string
	)
	err := scan(&wp.ID, &wp.UserID, &dateStr, &wp.IsCompleted, &wp.Note, &wp.CreatedAt, &wp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if wp.WeekStartDate, err = time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("invalid stored week start %q: %w", dateStr, err)
	}
	return &wp, nil
}
