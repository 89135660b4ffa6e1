package database

import (
	"context"
	"testing"
	"time"

	"weeksuntil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FullName:     "Alice",
		StartDate:    newDate(2024, 1, 1),
		Deadline:     newDate(2024, 6, 1),
		Emoji:        "🎓",
		IsActive:     true,
	}

	err := db.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	found, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.FullName)
	assert.Equal(t, "🎓", found.Emoji)
	require.NotNil(t, found.StartDate)
	assert.Equal(t, *user.StartDate, *found.StartDate)
	assert.False(t, found.IsAdmin)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, found.Email, byID.Email)

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	n, err := db.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUser_TelegramIdentity(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{TelegramID: 555, FullName: "TG User", Emoji: "🚀", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, user))

	found, err := db.GetUserByTelegramID(ctx, 555)
	require.NoError(t, err)
	assert.Empty(t, found.Email)
	assert.Equal(t, int64(555), found.TelegramID)

	dup := &models.User{TelegramID: 555, FullName: "Dup", Emoji: "📚", IsActive: true}
	err = db.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrTelegramTaken)
}

func TestUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetUserByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUser_EmailConflict(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateUser(ctx, &models.User{Email: "a@b.c", Emoji: "🎓", IsActive: true}))

	err := db.CreateUser(ctx, &models.User{Email: "a@b.c", Emoji: "📚", IsActive: true})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUser_EmojiUniqueAmongActive(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateUser(ctx, &models.User{Email: "a@b.c", Emoji: "🎓", IsActive: true}))

	err := db.CreateUser(ctx, &models.User{Email: "x@y.z", Emoji: "🎓", IsActive: true})
	assert.ErrorIs(t, err, ErrEmojiTaken)

	// Inactive users do not hold their symbol.
	err = db.CreateUser(ctx, &models.User{Email: "z@y.x", Emoji: "🎓", IsActive: false})
	assert.NoError(t, err)

	taken, err := db.TakenEmojis(ctx)
	require.NoError(t, err)
	assert.True(t, taken["🎓"])
	assert.Len(t, taken, 1)
}

func TestUpdateUserProfile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := &models.User{Email: "a@b.c", FullName: "Before", Emoji: "🎓", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, user))

	user.FullName = "After"
	user.Deadline = newDate(2025, 5, 1)
	user.Emoji = "🚀"
	require.NoError(t, db.UpdateUserProfile(ctx, user))

	found, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", found.FullName)
	assert.Equal(t, "🚀", found.Emoji)
	require.NotNil(t, found.Deadline)
	assert.Equal(t, *user.Deadline, *found.Deadline)
	assert.Nil(t, found.StartDate)
}

func TestPromoteEarliestUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.AdminID(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// Empty cohort: nothing to promote.
	_, err = db.PromoteEarliestUser(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.User{Email: "first@x.y", Emoji: "🎓", IsActive: true}
	second := &models.User{Email: "second@x.y", Emoji: "📚", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, first))
	require.NoError(t, db.CreateUser(ctx, second))

	id, err := db.PromoteEarliestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)

	adminID, err := db.AdminID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, adminID)

	// Idempotent: a second reconcile keeps the same admin.
	id, err = db.PromoteEarliestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
}
