package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weeksuntil/internal/models"
)

const userColumns = `id, email, telegram_id, password_hash, full_name,
                     start_date, deadline, emoji, is_active, is_admin,
                     created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (
                email, telegram_id, password_hash, full_name,
                start_date, deadline, emoji, is_active, is_admin,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		nullString(user.Email),
		nullInt64(user.TelegramID),
		nullString(user.PasswordHash),
		user.FullName,
		formatDate(user.StartDate),
		formatDate(user.Deadline),
		user.Emoji,
		user.IsActive,
		user.IsAdmin,
		now,
		now,
	)
	if err != nil {
		return classifyConflict(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return db.queryUser(ctx, query, email)
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`
	return db.queryUser(ctx, query, telegramID)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	row := db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var (
		u            models.User
		email        sql.NullString
		telegramID   sql.NullInt64
		passwordHash sql.NullString
		startDate    sql.NullString
		deadline     sql.NullString
	)
	err := scan(
		&u.ID, &email, &telegramID, &passwordHash, &u.FullName,
		&startDate, &deadline, &u.Emoji, &u.IsActive, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.TelegramID = telegramID.Int64
	u.PasswordHash = passwordHash.String
	if u.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if u.Deadline, err = parseDate(deadline); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) listUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	return db.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

func (db *DB) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	return db.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY id`)
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// TakenEmojis returns the symbols currently held by active users.
func (db *DB) TakenEmojis(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT emoji FROM users WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query taken emojis: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("failed to scan emoji: %w", err)
		}
		taken[e] = true
	}
	return taken, rows.Err()
}

// UpdateUserProfile persists profile fields editable by the user.
func (db *DB) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET
                full_name = ?, start_date = ?, deadline = ?,
                emoji = ?, password_hash = ?, updated_at = ?
              WHERE id = ?`
	_, err := db.ExecContext(ctx, query,
		user.FullName,
		formatDate(user.StartDate),
		formatDate(user.Deadline),
		user.Emoji,
		nullString(user.PasswordHash),
		time.Now(),
		user.ID,
	)
	return classifyConflict(err)
}

// AdminID returns the id of the active admin, or ErrNotFound when none exists.
func (db *DB) AdminID(ctx context.Context) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE is_admin = 1 AND is_active = 1 ORDER BY id LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query admin: %w", err)
	}
	return id, nil
}

// PromoteEarliestUser makes the earliest registered active user the admin
// if no admin currently exists. Runs in a transaction so that concurrent
// reconciliations cannot promote two users. Returns the admin id.
func (db *DB) PromoteEarliestUser(ctx context.Context) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin promotion tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE is_admin = 1 AND is_active = 1 ORDER BY id LIMIT 1`,
	).Scan(&id)
	if err == nil {
		return id, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query admin: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE is_active = 1 ORDER BY id LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query earliest user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_admin = 1, updated_at = ? WHERE id = ?`, time.Now(), id,
	); err != nil {
		return 0, fmt.Errorf("failed to promote user %d: %w", id, err)
	}
	return id, tx.Commit()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
