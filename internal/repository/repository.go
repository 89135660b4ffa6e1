// Package repository stores transient bot conversation state. Redis is
// the primary backend with an in-memory fallback wired through
// FailoverStateRepository, so the bot keeps answering while Redis is down.
package repository

import (
	"context"
	"time"

	"weeksuntil/internal/models"
)

type StateRepository interface {
	GetState(ctx context.Context, chatID int64) (*models.ChatState, error)
	SetState(ctx context.Context, state *models.ChatState) error
	ClearState(ctx context.Context, chatID int64) error
	CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error)
}
