package booking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	database "github.com/FACorreiaa/go-travel-concierge/app/db"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

func setupGormTest(t *testing.T) (*GormBookingRepo, *gorm.DB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), logger, GormModels()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormBookingRepo(db, logger), db
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func countStates(t *testing.T, db *gorm.DB, step types.BookingStep) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&bookingStateModel{}).Where("current_step = ?", string(step)).Count(&n).Error)
	return n
}

func TestNegotiationLifecycleOnSQLite(t *testing.T) {
	ctx := context.Background()
	repo, db := setupGormTest(t)
	clk := &clock{now: fixedNow}
	svc := NewServiceImpl(repo, NewLocalLocker(), 0, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(clk.Now)

	first, err := svc.ApplyTag(ctx, session, map[string]any{"type": "taxi", "pickup": "Airport"})
	require.NoError(t, err)

	clk.Advance(30 * time.Minute)
	second, err := svc.ApplyTag(ctx, session, map[string]any{"type": "taxi", "status": "ready", "pickup": "Airport", "time": "18:00"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "fresh record is updated in place")
	assert.EqualValues(t, 1, countStates(t, db, types.StepReady))

	ctxStr, err := svc.ActiveContext(ctx, session)
	require.NoError(t, err)
	assert.Contains(t, ctxStr, "Service: taxi, Status: ready")

	conf, err := svc.Confirm(ctx, session)
	require.NoError(t, err)
	assert.Regexp(t, `^BK-[A-Z0-9]{8}$`, conf.ReferenceID)
	assert.Equal(t, "Airport", conf.Details["pickup"])

	var logged bookingModel
	require.NoError(t, db.Where("reference_id = ?", conf.ReferenceID).Take(&logged).Error)
	assert.Equal(t, "confirmed", logged.Status)
	assert.Equal(t, "pending", logged.PaymentStatus)
	assert.Equal(t, first.ID, logged.BookingStateID)
	assert.EqualValues(t, 1, countStates(t, db, types.StepCompleted))

	_, err = svc.Confirm(ctx, session)
	assert.ErrorIs(t, err, types.ErrNotFound, "a completed booking cannot be confirmed twice")

	third, err := svc.ApplyTag(ctx, session, map[string]any{"type": "spa"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID, "completed records never resume")
}

func TestStaleNegotiationStartsOver(t *testing.T) {
	ctx := context.Background()
	repo, db := setupGormTest(t)
	clk := &clock{now: fixedNow}
	svc := NewServiceImpl(repo, nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(clk.Now)

	old, err := svc.ApplyTag(ctx, session, map[string]any{"type": "taxi", "status": "ready"})
	require.NoError(t, err)

	clk.Advance(2*time.Hour + time.Second)
	fresh, err := svc.ApplyTag(ctx, session, map[string]any{"type": "dinner"})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)

	var stale bookingStateModel
	require.NoError(t, db.Where("id = ?", old.ID).Take(&stale).Error)
	assert.Equal(t, string(types.StepReady), stale.CurrentStep, "stale record is left untouched")
	assert.Equal(t, "taxi", stale.ServiceType)

	ctxStr, err := svc.ActiveContext(ctx, session)
	require.NoError(t, err)
	assert.Contains(t, ctxStr, "Service: dinner")
}

func TestResetDeletesOpenRecordsOnly(t *testing.T) {
	ctx := context.Background()
	repo, db := setupGormTest(t)
	clk := &clock{now: fixedNow}
	svc := NewServiceImpl(repo, nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil))).WithClock(clk.Now)

	_, err := svc.ApplyTag(ctx, session, map[string]any{"type": "taxi", "status": "ready"})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, session)
	require.NoError(t, err)

	_, err = svc.ApplyTag(ctx, session, map[string]any{"type": "spa"})
	require.NoError(t, err)
	clk.Advance(3 * time.Hour)
	_, err = svc.ApplyTag(ctx, session, map[string]any{"type": "dinner"})
	require.NoError(t, err)

	other := types.Session{TenantID: session.TenantID, UserKey: "someone-else"}
	_, err = svc.ApplyTag(ctx, other, map[string]any{"type": "laundry"})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, session))
	require.NoError(t, svc.Reset(ctx, session), "second reset is a no-op")

	var open int64
	require.NoError(t, db.Model(&bookingStateModel{}).
		Where("user_key = ? AND current_step <> ?", session.UserKey, string(types.StepCompleted)).Count(&open).Error)
	assert.Zero(t, open, "stale and fresh open records are both gone")
	assert.EqualValues(t, 1, countStates(t, db, types.StepCompleted))

	_, err = repo.FindFresh(ctx, other, fixedNow)
	assert.NoError(t, err, "other sessions are untouched")
}

// barrierRepo holds every FindFresh result until two callers have read or
// the wait expires, so neither negotiation writes before both have looked.
type barrierRepo struct {
	Repository
	arrived chan struct{}
	wait    time.Duration
}

func (b *barrierRepo) FindFresh(ctx context.Context, s types.Session, notBefore time.Time) (*types.BookingState, error) {
	state, err := b.Repository.FindFresh(ctx, s, notBefore)
	b.arrived <- struct{}{}
	deadline := time.After(b.wait)
	for len(b.arrived) < cap(b.arrived) {
		select {
		case <-deadline:
			return state, err
		case <-time.After(time.Millisecond):
		}
	}
	return state, err
}

func raceTwoTags(t *testing.T, locker Locker) int64 {
	t.Helper()
	repo, db := setupGormTest(t)
	br := &barrierRepo{Repository: repo, arrived: make(chan struct{}, 2), wait: 200 * time.Millisecond}
	svc := NewServiceImpl(br, locker, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var wg sync.WaitGroup
	for _, kind := range []string{"taxi", "spa"} {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			_, err := svc.ApplyTag(context.Background(), session, map[string]any{"type": kind})
			assert.NoError(t, err)
		}(kind)
	}
	wg.Wait()

	var n int64
	require.NoError(t, db.Model(&bookingStateModel{}).Count(&n).Error)
	return n
}

func TestConcurrentTagsWithoutLockMayDuplicate(t *testing.T) {
	assert.EqualValues(t, 2, raceTwoTags(t, NoopLocker{}), "last writer wins and both inserts land")
}

func TestConcurrentTagsWithLocalLockKeepOneRecord(t *testing.T) {
	assert.EqualValues(t, 1, raceTwoTags(t, NewLocalLocker()))
}
