package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"weeksuntil/internal/database"
	"weeksuntil/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCohortGrid(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := date(2024, 1, 1)
	deadline := date(2024, 3, 25)
	user := &models.User{
		Email:     "a@example.com",
		FullName:  "Ada",
		Emoji:     "🎓",
		StartDate: &start,
		Deadline:  &deadline,
		IsActive:  true,
	}
	require.NoError(t, db.CreateUser(ctx, user))

	require.NoError(t, db.UpsertWeekProgress(ctx, &models.WeekProgress{
		UserID:        user.ID,
		WeekStartDate: date(2024, 1, 1),
		IsCompleted:   true,
		Note:          "kickoff",
	}))
	require.NoError(t, db.UpsertWeekProgress(ctx, &models.WeekProgress{
		UserID:        user.ID,
		WeekStartDate: date(2024, 1, 8),
	}))

	logger := zerolog.Nop()
	gen := NewGenerator(db, &logger)

	data, err := gen.CohortGrid(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Grid", "Stats"}, f.GetSheetList())

	name, err := f.GetCellValue("Grid", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	// Week columns start at E, sorted ascending.
	head, err := f.GetCellValue("Grid", "E1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", head)

	mark, err := f.GetCellValue("Grid", "E2")
	require.NoError(t, err)
	assert.Equal(t, "✅ kickoff", mark)

	empty, err := f.GetCellValue("Grid", "F2")
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	// 13 total weeks, 1 completed.
	total, err := f.GetCellValue("Stats", "C2")
	require.NoError(t, err)
	assert.Equal(t, "13", total)

	completed, err := f.GetCellValue("Stats", "F2")
	require.NoError(t, err)
	assert.Equal(t, "1", completed)
}

func TestCohortGrid_EmptyCohort(t *testing.T) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	gen := NewGenerator(db, &logger)

	data, err := gen.CohortGrid(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
