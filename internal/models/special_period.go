package models

import "time"

const (
	PeriodVacation     = "vacation"
	PeriodBusinessTrip = "business_trip"
	PeriodOther        = "other"
)

// SpecialPeriod is a date range excluded from the countdown.
// EndDate >= StartDate is assumed, not enforced.
type SpecialPeriod struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	PeriodType  string    `json:"period_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
