package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/progress"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *fakeClock, *memory.MemoryStorage) {
	t.Helper()
	store := memory.New()
	clock := &fakeClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(store, time.UTC, zap.NewNop())
	svc.SetClock(clock.Now)
	return svc, clock, store
}

func seedProfile(t *testing.T, svc *Service, userID string) {
	t.Helper()
	weight, water, kcal := 70.0, 2100, 1800.0
	city := "Москва"
	_, err := svc.WithToday(context.Background(), userID, func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error) {
		return tx.UpdateDailyProfile(ctx, userID, today.RecordDate, storage.ProfileFields{
			Weight: &weight, City: &city, WaterGoal: &water, CalorieGoal: &kcal,
		})
	})
	require.NoError(t, err)
}

func TestGetOrCreateTodayDegenerate(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec, err := svc.GetOrCreateToday(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", rec.RecordDate)
	assert.Nil(t, rec.Weight)
	assert.Nil(t, rec.WaterGoal)
	assert.Zero(t, rec.LoggedWater)
}

func TestGetOrCreateTodayIsIdempotent(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.GetOrCreateToday(ctx, "u1")
			assert.NoError(t, err)
			ids <- rec.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)

	records, err := store.ListDailyRecords(ctx, "u1", "2026-01-10", "2026-01-10")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRolloverCarriesGoalsAndResetsCounters(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	seedProfile(t, svc, "u1")
	_, err := svc.ApplyWaterDelta(ctx, "u1", 800)
	require.NoError(t, err)

	clock.Advance(72 * time.Hour)

	rec, err := svc.ApplyWaterDelta(ctx, "u1", 250)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-13", rec.RecordDate)
	assert.Equal(t, 250, rec.LoggedWater)
	require.NotNil(t, rec.WaterGoal)
	assert.Equal(t, 2100, *rec.WaterGoal)
	require.NotNil(t, rec.City)
	assert.Equal(t, "Москва", *rec.City)
	assert.Zero(t, rec.LoggedCalories)
}

func TestRolloverUsesLedgerTimezone(t *testing.T) {
	store := memory.New()
	moscow := time.FixedZone("MSK", 3*60*60)
	svc := NewService(store, moscow, zap.NewNop())
	// 22:30 UTC — уже следующий день по Москве
	svc.SetClock(func() time.Time { return time.Date(2026, 1, 10, 22, 30, 0, 0, time.UTC) })

	assert.Equal(t, "2026-01-11", svc.Today())
	from, to := svc.Window(7)
	assert.Equal(t, "2026-01-05", from)
	assert.Equal(t, "2026-01-11", to)
}

func TestNetCaloriesSurplus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyCalorieDelta(ctx, "u1", 500, "")
	require.NoError(t, err)
	rec, err := svc.ApplyBurnDelta(ctx, "u1", 200)
	require.NoError(t, err)

	assert.InDelta(t, 300.0, rec.NetCalories, 1e-9)
	assert.Equal(t, progress.NetStatus{Kind: progress.Surplus, Amount: 300}, progress.Net(rec.LoggedCalories, rec.BurnedCalories))
}

func TestApplyCalorieDeltaWithLabelWritesFoodHistory(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyCalorieDelta(ctx, "u1", 320, "  сырники ")
	require.NoError(t, err)

	entries, err := store.ListFoodEntries(ctx, "u1", "2026-01-10")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "сырники", entries[0].FoodName)
	assert.Equal(t, 320.0, entries[0].Calories)
}

func TestInvalidAmountsMutateNothing(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyWaterDelta(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.ApplyCalorieDelta(ctx, "u1", -5, "x")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.ApplyBurnDelta(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = store.GetLatestDailyRecord(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOversizedAmountsAreRejected(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyWaterDelta(ctx, "u1", math.MaxInt)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	_, err = svc.ApplyWaterDelta(ctx, "u1", MaxWaterDelta+1)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	_, err = svc.ApplyCalorieDelta(ctx, "u1", math.Inf(1), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.ApplyCalorieDelta(ctx, "u1", math.NaN(), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.ApplyBurnDelta(ctx, "u1", 1e308)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	_, err = svc.Apply(ctx, "u1", storage.Delta{Calories: math.MaxFloat64})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.Apply(ctx, "u1", storage.Delta{Water: -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = store.GetLatestDailyRecord(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWaterTotalStaysInStorableRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.WithToday(ctx, "u1", func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error) {
		return tx.AddToDailyRecord(ctx, "u1", today.RecordDate, storage.Delta{Water: MaxLoggedWater - 100})
	})
	require.NoError(t, err)

	_, err = svc.ApplyWaterDelta(ctx, "u1", 200)
	assert.ErrorIs(t, err, ErrTotalOverflow)

	rec, err := svc.ApplyWaterDelta(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, MaxLoggedWater, rec.LoggedWater)

	_, err = svc.ApplyWaterDelta(ctx, "u1", 1)
	assert.ErrorIs(t, err, ErrTotalOverflow)

	rec, err = svc.GetOrCreateToday(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, MaxLoggedWater, rec.LoggedWater)
}

func TestFailedEventRollsBackDelta(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	boom := errors.New("insert failed")
	_, err := svc.Apply(ctx, "u1", storage.Delta{Burned: 100}, func(ctx context.Context, tx storage.LedgerTx, date string) error {
		return boom
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindStorage))
	assert.ErrorIs(t, err, boom)

	_, err = store.GetLatestDailyRecord(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type brokenStore struct {
	*memory.MemoryStorage
}

func (brokenStore) InTx(ctx context.Context, fn func(tx storage.LedgerTx) error) error {
	return errors.New("connection refused")
}

func (brokenStore) GetLatestDailyRecord(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	return nil, errors.New("connection refused")
}

func TestStorageFailureIsTyped(t *testing.T) {
	svc := NewService(brokenStore{memory.New()}, time.UTC, nil)
	ctx := context.Background()

	_, err := svc.ApplyWaterDelta(ctx, "u1", 250)
	assert.True(t, apperr.IsKind(err, apperr.KindStorage))

	_, err = svc.GetLatest(ctx, "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindStorage))
}

func TestGetLatest(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetLatest(ctx, "u1")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.ApplyWaterDelta(ctx, "u1", 100)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = svc.ApplyWaterDelta(ctx, "u1", 300)
	require.NoError(t, err)

	rec, err := svc.GetLatest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-11", rec.RecordDate)
	assert.Equal(t, 300, rec.LoggedWater)

	_, err = svc.GetLatest(ctx, " ")
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestRecalculateNet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyCalorieDelta(ctx, "u1", 700, "")
	require.NoError(t, err)

	rec, err := svc.RecalculateNet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 700.0, rec.NetCalories)
}

func TestHistoryAndClearAll(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.ApplyWaterDelta(ctx, "u1", 100*(i+1))
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}
	clock.Advance(-24 * time.Hour)

	history, err := svc.History(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-01-11", history[0].RecordDate)
	assert.Equal(t, 300, history[1].LoggedWater)

	require.NoError(t, svc.ClearAll(ctx))
	_, err = svc.GetLatest(ctx, "u1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
