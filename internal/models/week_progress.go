package models

import "time"

// WeekProgress is one user's mark for a single calendar week.
// WeekStartDate is always the Monday of that week.
type WeekProgress struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	WeekStartDate time.Time `json:"week_start_date"`
	IsCompleted   bool      `json:"is_completed"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
