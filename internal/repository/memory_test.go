package repository

import (
	"context"
	"testing"
	"time"

	"weeksuntil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.ChatState{
			ChatID:  1,
			Step:    models.StepAwaitingNote,
			Payload: map[string]string{"hint": "reply with text"},
		}

		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StepAwaitingNote, got.Step)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("GetNonExistentState", func(t *testing.T) {
		got, err := repo.GetState(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		repo.SetState(ctx, &models.ChatState{ChatID: 2, Step: models.StepAwaitingDates})
		require.NoError(t, repo.ClearState(ctx, 2))

		got, _ := repo.GetState(ctx, 2)
		assert.Nil(t, got)
	})

	t.Run("ExpiredStateDropped", func(t *testing.T) {
		stale := &models.ChatState{
			ChatID:    3,
			Step:      models.StepAwaitingNote,
			UpdatedAt: time.Now().Add(-2 * time.Hour),
		}
		repo.states.Store(stale.ChatID, stale)

		got, err := repo.GetState(ctx, 3)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		chatID := int64(4)

		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, chatID, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, chatID, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
