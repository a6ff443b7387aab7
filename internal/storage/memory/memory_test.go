package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/activelife/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestInTxRollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	m := New()

	boom := errors.New("boom")
	err := m.InTx(ctx, func(tx storage.LedgerTx) error {
		_, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "u1", RecordDate: "2026-01-02"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetLatestDailyRecord(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsertDailyRecordIsUniquePerDay(t *testing.T) {
	ctx := context.Background()
	m := New()

	var first, second bool
	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		var err error
		first, err = tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "u1", RecordDate: "2026-01-02"})
		if err != nil {
			return err
		}
		second, err = tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "u1", RecordDate: "2026-01-02"})
		return err
	}))

	assert.True(t, first)
	assert.False(t, second)
}

func TestAddToDailyRecordRecomputesNet(t *testing.T) {
	ctx := context.Background()
	m := New()

	var rec *storage.DailyRecord
	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		if _, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "u1", RecordDate: "2026-01-02"}); err != nil {
			return err
		}
		if _, err := tx.AddToDailyRecord(ctx, "u1", "2026-01-02", storage.Delta{Calories: 500}); err != nil {
			return err
		}
		var err error
		rec, err = tx.AddToDailyRecord(ctx, "u1", "2026-01-02", storage.Delta{Burned: 200, Water: 250})
		return err
	}))

	assert.Equal(t, 250, rec.LoggedWater)
	assert.InDelta(t, 300.0, rec.NetCalories, 1e-9)
}

func TestLatestBeforeSkipsSameDay(t *testing.T) {
	ctx := context.Background()
	m := New()

	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		for _, d := range []string{"2026-01-01", "2026-01-05", "2026-01-07"} {
			if _, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{
				UserID:        "u1",
				RecordDate:    d,
				ProfileFields: storage.ProfileFields{City: ptr("city-" + d)},
			}); err != nil {
				return err
			}
		}
		prev, err := tx.GetLatestDailyRecordBefore(ctx, "u1", "2026-01-07")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-05", prev.RecordDate)
		return nil
	}))

	latest, err := m.GetLatestDailyRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-07", latest.RecordDate)

	list, err := m.ListDailyRecords(ctx, "u1", "2026-01-02", "2026-01-07")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-01-05", list[0].RecordDate)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	m := New()

	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		_, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{
			UserID:        "u1",
			RecordDate:    "2026-01-01",
			ProfileFields: storage.ProfileFields{Weight: ptr(70.0)},
		})
		return err
	}))

	rec, err := m.GetLatestDailyRecord(ctx, "u1")
	require.NoError(t, err)
	*rec.Weight = 1

	again, err := m.GetLatestDailyRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, *again.Weight)
}

func TestActivityStatsGrouping(t *testing.T) {
	ctx := context.Background()
	m := New()

	logs := []storage.ActivityLog{
		{UserID: "u1", ActivityType: "бег", DurationMinutes: 30, CaloriesBurned: 300, ActivityDate: "2026-01-05"},
		{UserID: "u1", ActivityType: "йога", DurationMinutes: 60, CaloriesBurned: 300, ActivityDate: "2026-01-06"},
		{UserID: "u1", ActivityType: "плавание", DurationMinutes: 30, CaloriesBurned: 600, ActivityDate: "2026-01-06"},
		{UserID: "u1", ActivityType: "бег", DurationMinutes: 10, CaloriesBurned: 100, ActivityDate: "2025-12-01"},
		{UserID: "u2", ActivityType: "бег", DurationMinutes: 30, CaloriesBurned: 300, ActivityDate: "2026-01-06"},
	}
	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		for i := range logs {
			if err := tx.InsertActivityLog(ctx, &logs[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	stats, err := m.GetActivityStats(ctx, "u1", "2026-01-01", "2026-01-07")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalActivities)
	assert.Equal(t, 120, stats.TotalMinutes)
	assert.Equal(t, 1200, stats.TotalCaloriesBurned)
	require.Len(t, stats.ByType, 3)
	assert.Equal(t, "плавание", stats.ByType[0].ActivityType)
	// равные калории упорядочены по типу
	assert.Equal(t, "бег", stats.ByType[1].ActivityType)
	assert.Equal(t, "йога", stats.ByType[2].ActivityType)

	today, err := m.ListActivityLogs(ctx, "u1", "2026-01-06")
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "плавание", today[0].ActivityType)
	daily, err := m.GetDailyActivityTotals(ctx, "u1", "2026-01-01", "2026-01-07")
	require.NoError(t, err)
	assert.Equal(t, []storage.DailyActivityTotals{
		{Date: "2026-01-05", Activities: 1, Minutes: 30, CaloriesBurned: 300},
		{Date: "2026-01-06", Activities: 2, Minutes: 90, CaloriesBurned: 900},
	}, daily)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	m := New()

	require.NoError(t, m.InTx(ctx, func(tx storage.LedgerTx) error {
		if err := tx.UpsertUser(ctx, &storage.User{UserID: "u1", Name: "Ann"}); err != nil {
			return err
		}
		return tx.InsertFoodEntry(ctx, &storage.FoodEntry{UserID: "u1", FoodName: "pizza", EntryDate: "2026-01-01"})
	}))
	require.NoError(t, m.ClearAll(ctx))

	_, err := m.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	food, err := m.ListFoodEntries(ctx, "u1", "2026-01-01")
	require.NoError(t, err)
	assert.Empty(t, food)
}
