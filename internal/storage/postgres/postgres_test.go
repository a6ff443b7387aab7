package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fdg312/activelife/internal/dbmigrate"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupPostgres поднимает postgres в контейнере и применяет миграции
func setupPostgres(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "health_tracker",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/health_tracker?sslmode=disable", host, port.Port())
	require.NoError(t, dbmigrate.RunFS(ctx, "up", dbURL, migrations.FS, ".", zap.NewNop()))

	st, err := New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestPostgresLedger(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()

	t.Run("concurrent inserts create one record", func(t *testing.T) {
		var wg sync.WaitGroup
		created := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := st.InTx(ctx, func(tx storage.LedgerTx) error {
					ok, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "race", RecordDate: "2026-03-01"})
					created <- ok
					return err
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		close(created)

		n := 0
		for ok := range created {
			if ok {
				n++
			}
		}
		assert.Equal(t, 1, n)

		records, err := st.ListDailyRecords(ctx, "race", "2026-03-01", "2026-03-01")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("deltas accumulate and net is recomputed", func(t *testing.T) {
		var rec *storage.DailyRecord
		err := st.InTx(ctx, func(tx storage.LedgerTx) error {
			if _, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{
				UserID:        "u1",
				RecordDate:    "2026-03-02",
				ProfileFields: storage.ProfileFields{Weight: f64(70), City: str("Москва")},
			}); err != nil {
				return err
			}
			if _, err := tx.AddToDailyRecord(ctx, "u1", "2026-03-02", storage.Delta{Calories: 500, Water: 300}); err != nil {
				return err
			}
			var err error
			rec, err = tx.AddToDailyRecord(ctx, "u1", "2026-03-02", storage.Delta{Burned: 200})
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 300, rec.LoggedWater)
		assert.InDelta(t, 300.0, rec.NetCalories, 1e-9)
		require.NotNil(t, rec.City)
		assert.Equal(t, "Москва", *rec.City)
		assert.Equal(t, "2026-03-02", rec.RecordDate)
	})

	t.Run("rollback leaves no trace", func(t *testing.T) {
		err := st.InTx(ctx, func(tx storage.LedgerTx) error {
			if _, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "ghost", RecordDate: "2026-03-02"}); err != nil {
				return err
			}
			return fmt.Errorf("abort")
		})
		require.Error(t, err)

		_, err = st.GetLatestDailyRecord(ctx, "ghost")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("latest before and stats", func(t *testing.T) {
		err := st.InTx(ctx, func(tx storage.LedgerTx) error {
			if _, err := tx.InsertDailyRecord(ctx, &storage.DailyRecord{UserID: "u1", RecordDate: "2026-03-05"}); err != nil {
				return err
			}
			prev, err := tx.GetLatestDailyRecordBefore(ctx, "u1", "2026-03-05")
			if err != nil {
				return err
			}
			assert.Equal(t, "2026-03-02", prev.RecordDate)

			for _, a := range []storage.ActivityLog{
				{UserID: "u1", ActivityType: "бег", DurationMinutes: 30, CaloriesBurned: 300, ActivityDate: "2026-03-05"},
				{UserID: "u1", ActivityType: "плавание", DurationMinutes: 30, CaloriesBurned: 600, ActivityDate: "2026-03-05"},
				{UserID: "u1", ActivityType: "бег", DurationMinutes: 15, CaloriesBurned: 150, ActivityDate: "2026-03-04"},
			} {
				if err := tx.InsertActivityLog(ctx, &a); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		stats, err := st.GetActivityStats(ctx, "u1", "2026-03-01", "2026-03-05")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalActivities)
		assert.Equal(t, 75, stats.TotalMinutes)
		assert.Equal(t, 1050, stats.TotalCaloriesBurned)
		require.Len(t, stats.ByType, 2)
		assert.Equal(t, "плавание", stats.ByType[0].ActivityType)
		assert.Equal(t, 450, stats.ByType[1].TotalCalories)

		daily, err := st.GetDailyActivityTotals(ctx, "u1", "2026-03-01", "2026-03-05")
		require.NoError(t, err)
		assert.Equal(t, []storage.DailyActivityTotals{
			{Date: "2026-03-04", Activities: 1, Minutes: 15, CaloriesBurned: 150},
			{Date: "2026-03-05", Activities: 2, Minutes: 60, CaloriesBurned: 900},
		}, daily)

		today, err := st.ListActivityLogs(ctx, "u1", "2026-03-05")
		require.NoError(t, err)
		assert.Len(t, today, 2)
	})

	t.Run("clear all", func(t *testing.T) {
		require.NoError(t, st.InTx(ctx, func(tx storage.LedgerTx) error {
			return tx.UpsertUser(ctx, &storage.User{UserID: "u1", Name: "Ann"})
		}))
		require.NoError(t, st.ClearAll(ctx))

		_, err := st.GetUser(ctx, "u1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = st.GetLatestDailyRecord(ctx, "u1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
