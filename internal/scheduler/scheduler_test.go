package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"weeksuntil/internal/database"
	"weeksuntil/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users    []*models.User
	progress map[int64]*models.WeekProgress // keyed by user id, current week only
	listErr  error
}

func (f *fakeStore) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeStore) GetWeekProgress(ctx context.Context, userID int64, weekStart time.Time) (*models.WeekProgress, error) {
	if wp, ok := f.progress[userID]; ok && wp.WeekStartDate.Equal(weekStart) {
		return wp, nil
	}
	return nil, database.ErrNotFound
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]error
	block   chan struct{} // when set, SendMessage waits for it (or ctx)
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, chatID)
	return nil
}

func (f *fakeSender) sentTo() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.sent...)
}

// asOf is a Wednesday; the week's Monday is 2024-01-01.
var asOf = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func activeUser(id, tgID int64) *models.User {
	return &models.User{ID: id, TelegramID: tgID, IsActive: true}
}

func TestRunSweep_NotifiesOnlyIncompleteUsers(t *testing.T) {
	store := &fakeStore{
		users: []*models.User{
			activeUser(1, 101), // completed -> skip
			activeUser(2, 102), // record exists but incomplete -> notify
			activeUser(3, 103), // no record -> notify
			{ID: 4, IsActive: true},          // no telegram id -> skip
			{ID: 5, TelegramID: 105},         // inactive -> skip
		},
		progress: map[int64]*models.WeekProgress{
			1: {UserID: 1, WeekStartDate: monday, IsCompleted: true},
			2: {UserID: 2, WeekStartDate: monday, IsCompleted: false},
		},
	}
	sender := &fakeSender{}
	s := New(store, sender, time.Sunday, 18, nil)

	n, err := s.RunSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []int64{102, 103}, sender.sentTo())
}

func TestRunSweep_SendFailureDoesNotAbort(t *testing.T) {
	store := &fakeStore{
		users: []*models.User{activeUser(1, 101), activeUser(2, 102), activeUser(3, 103)},
	}
	sender := &fakeSender{failFor: map[int64]error{102: errors.New("chat blocked")}}
	s := New(store, sender, time.Sunday, 18, nil)

	n, err := s.RunSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []int64{101, 103}, sender.sentTo())
}

func TestRunSweep_StoreError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	s := New(store, &fakeSender{}, time.Sunday, 18, nil)

	_, err := s.RunSweep(context.Background(), asOf)
	assert.Error(t, err)
}

func TestRunSweep_NoOverlap(t *testing.T) {
	block := make(chan struct{})
	store := &fakeStore{users: []*models.User{activeUser(1, 101)}}
	sender := &fakeSender{block: block}
	s := New(store, sender, time.Sunday, 18, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.RunSweep(context.Background(), asOf)
		assert.NoError(t, err)
	}()

	// Wait for the first sweep to hold the guard.
	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, time.Millisecond)

	_, err := s.RunSweep(context.Background(), asOf)
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(block)
	<-done
	assert.Equal(t, []int64{101}, sender.sentTo())

	// Guard releases after completion.
	n, err := s.RunSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunSweep_SlowRecipientTimesOut(t *testing.T) {
	store := &fakeStore{users: []*models.User{activeUser(1, 101), activeUser(2, 102)}}
	sender := &fakeSender{block: make(chan struct{})} // never unblocked: ctx must expire
	s := New(store, sender, time.Sunday, 18, nil)
	s.sendTimeout = 10 * time.Millisecond

	start := time.Now()
	n, err := s.RunSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUntilNextTrigger(t *testing.T) {
	s := New(&fakeStore{}, &fakeSender{}, time.Sunday, 18, nil)

	// Wednesday noon -> next Sunday 18:00 is 4 days 6 hours away.
	s.nowFunc = func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t, 4*24*time.Hour+6*time.Hour, s.untilNextTrigger())

	// Exactly at trigger time -> a full week ahead.
	s.nowFunc = func() time.Time { return time.Date(2024, 1, 7, 18, 0, 0, 0, time.UTC) }
	assert.Equal(t, 7*24*time.Hour, s.untilNextTrigger())

	// Sunday morning -> same day evening.
	s.nowFunc = func() time.Time { return time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC) }
	assert.Equal(t, 9*time.Hour, s.untilNextTrigger())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := New(&fakeStore{}, &fakeSender{}, time.Sunday, 18, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
