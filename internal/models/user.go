package models

import "time"

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email,omitempty"`
	TelegramID   int64      `json:"telegram_id,omitempty"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Emoji        string     `json:"emoji"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasDates reports whether both countdown boundaries are set.
func (u *User) HasDates() bool {
	return u.StartDate != nil && u.Deadline != nil
}

// CanReceiveReminders reports whether the user has a delivery address.
func (u *User) CanReceiveReminders() bool {
	return u.IsActive && u.TelegramID != 0
}
