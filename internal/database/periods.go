package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weeksuntil/internal/models"
)

func (db *DB) CreateSpecialPeriod(ctx context.Context, p *models.SpecialPeriod) error {
	query := `INSERT INTO special_periods (
                user_id, start_date, end_date, period_type, description, created_at
            ) VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		p.UserID,
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.PeriodType,
		p.Description,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create special period: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted period id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (db *DB) GetSpecialPeriod(ctx context.Context, id int64) (*models.SpecialPeriod, error) {
	query := `SELECT id, user_id, start_date, end_date, period_type, description, created_at
              FROM special_periods WHERE id = ?`

	row := db.QueryRowContext(ctx, query, id)
	p, err := scanSpecialPeriod(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query special period: %w", err)
	}
	return p, nil
}

func (db *DB) ListSpecialPeriods(ctx context.Context, userID int64) ([]models.SpecialPeriod, error) {
	query := `SELECT id, user_id, start_date, end_date, period_type, description, created_at
              FROM special_periods WHERE user_id = ? ORDER BY start_date`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list special periods: %w", err)
	}
	defer rows.Close()

	var periods []models.SpecialPeriod
	for rows.Next() {
		p, err := scanSpecialPeriod(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan special period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// DeleteSpecialPeriod removes a period permanently. Ownership checks
// belong to the service layer.
func (db *DB) DeleteSpecialPeriod(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM special_periods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete special period: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSpecialPeriod(scan func(dest ...any) error) (*models.SpecialPeriod, error) {
	var (
		p        models.SpecialPeriod
		startStr string
		endStr   string
	)
	err := scan(&p.ID, &p.UserID, &startStr, &endStr, &p.PeriodType, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.StartDate, err = time.Parse(dateLayout, startStr); err != nil {
		return nil, fmt.Errorf("invalid stored start date %q: %w", startStr, err)
	}
	if p.EndDate, err = time.Parse(dateLayout, endStr); err != nil {
		return nil, fmt.Errorf("invalid stored end date %q: %w", endStr, err)
	}
	return &p, nil
}
