package models

import "time"

// Bot conversation steps. A chat with no stored state is idle.
const (
	StepAwaitingNote          = "awaiting_note"
	StepAwaitingVacationStart = "awaiting_vacation_start"
	StepAwaitingVacationEnd   = "awaiting_vacation_end"
	StepAwaitingDates         = "awaiting_dates"
)

// ChatState is the pending multi-message conversation step for one chat.
// Payload carries the answers collected so far (e.g. the vacation start
// date while waiting for the end date).
type ChatState struct {
	ChatID    int64             `json:"chat_id"`
	Step      string            `json:"step"`
	Payload   map[string]string `json:"payload,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
