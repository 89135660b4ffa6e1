package models

// GridStats is the derived weekly countdown for one user.
// All counts are non-negative.
type GridStats struct {
	TotalWeeks     int `json:"total_weeks"`
	SpecialWeeks   int `json:"special_weeks"`
	EffectiveWeeks int `json:"effective_weeks"`
	CompletedWeeks int `json:"completed_weeks"`
	RemainingWeeks int `json:"remaining_weeks"`
}
