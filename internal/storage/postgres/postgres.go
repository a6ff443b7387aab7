package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/activelife/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `
	id, user_id, to_char(record_date, 'YYYY-MM-DD'),
	weight, height, age, city, water_goal, calorie_goal,
	logged_water, logged_calories, burned_calories, net_calories,
	created_at, updated_at
`

// PostgresStorage — Postgres реализация storage.Ledger
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// InTx выполняет fn в транзакции READ COMMITTED.
// Успех возвращается только после подтверждённого Commit.
func (p *PostgresStorage) InTx(ctx context.Context, fn func(tx storage.LedgerTx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	query := `
		SELECT user_id, name, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var u storage.User
	err := p.pool.QueryRow(ctx, query, userID).Scan(&u.UserID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (p *PostgresStorage) GetLatestDailyRecord(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM daily_records
		WHERE user_id = $1
		ORDER BY record_date DESC, created_at DESC
		LIMIT 1
	`
	return scanRecord(p.pool.QueryRow(ctx, query, userID))
}

func (p *PostgresStorage) ListDailyRecords(ctx context.Context, userID, from, to string) ([]storage.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND record_date BETWEEN $2::date AND $3::date
		ORDER BY record_date ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []storage.DailyRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (p *PostgresStorage) ListActivityLogs(ctx context.Context, userID, date string) ([]storage.ActivityLog, error) {
	query := `
		SELECT id, user_id, activity_type, duration_minutes, calories_burned,
		       to_char(activity_date, 'YYYY-MM-DD'), created_at
		FROM activity_logs
		WHERE user_id = $1 AND activity_date = $2::date
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []storage.ActivityLog{}
	for rows.Next() {
		var a storage.ActivityLog
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.ActivityType,
			&a.DurationMinutes,
			&a.CaloriesBurned,
			&a.ActivityDate,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) GetActivityStats(ctx context.Context, userID, from, to string) (*storage.ActivityStats, error) {
	totalsQuery := `
		SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0), COALESCE(SUM(calories_burned), 0)
		FROM activity_logs
		WHERE user_id = $1 AND activity_date BETWEEN $2::date AND $3::date
	`

	stats := &storage.ActivityStats{ByType: []storage.ActivityTypeStats{}}
	err := p.pool.QueryRow(ctx, totalsQuery, userID, from, to).Scan(
		&stats.TotalActivities,
		&stats.TotalMinutes,
		&stats.TotalCaloriesBurned,
	)
	if err != nil {
		return nil, err
	}

	byTypeQuery := `
		SELECT activity_type, COUNT(*), SUM(duration_minutes), SUM(calories_burned) AS total_calories
		FROM activity_logs
		WHERE user_id = $1 AND activity_date BETWEEN $2::date AND $3::date
		GROUP BY activity_type
		ORDER BY total_calories DESC, activity_type ASC
	`

	rows, err := p.pool.Query(ctx, byTypeQuery, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts storage.ActivityTypeStats
		if err := rows.Scan(&ts.ActivityType, &ts.Count, &ts.TotalMinutes, &ts.TotalCalories); err != nil {
			return nil, err
		}
		stats.ByType = append(stats.ByType, ts)
	}
	return stats, rows.Err()
}

func (p *PostgresStorage) GetDailyActivityTotals(ctx context.Context, userID, from, to string) ([]storage.DailyActivityTotals, error) {
	query := `
		SELECT to_char(activity_date, 'YYYY-MM-DD'), COUNT(*), SUM(duration_minutes), SUM(calories_burned)
		FROM activity_logs
		WHERE user_id = $1 AND activity_date BETWEEN $2::date AND $3::date
		GROUP BY activity_date
		ORDER BY activity_date ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []storage.DailyActivityTotals{}
	for rows.Next() {
		var d storage.DailyActivityTotals
		if err := rows.Scan(&d.Date, &d.Activities, &d.Minutes, &d.CaloriesBurned); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) ListFoodEntries(ctx context.Context, userID, date string) ([]storage.FoodEntry, error) {
	query := `
		SELECT id, user_id, food_name, calories_per_100g, grams, calories,
		       to_char(entry_date, 'YYYY-MM-DD'), created_at
		FROM food_history
		WHERE user_id = $1 AND entry_date = $2::date
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []storage.FoodEntry{}
	for rows.Next() {
		var f storage.FoodEntry
		if err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.FoodName,
			&f.CaloriesPer100g,
			&f.Grams,
			&f.Calories,
			&f.EntryDate,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

// ClearAll очищает все таблицы одной командой
func (p *PostgresStorage) ClearAll(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE activity_logs, food_history, daily_records, users`)
	return err
}

// postgresTx — storage.LedgerTx поверх pgx.Tx
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) UpsertUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING created_at, updated_at
	`
	return t.tx.QueryRow(ctx, query, user.UserID, user.Name).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (t *postgresTx) GetDailyRecord(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND record_date = $2::date
	`
	return scanRecord(t.tx.QueryRow(ctx, query, userID, date))
}

func (t *postgresTx) GetLatestDailyRecordBefore(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND record_date < $2::date
		ORDER BY record_date DESC, created_at DESC
		LIMIT 1
	`
	return scanRecord(t.tx.QueryRow(ctx, query, userID, date))
}

// InsertDailyRecord полагается на UNIQUE (user_id, record_date):
// конкурентная вставка ждёт коммита соседа и превращается в no-op.
func (t *postgresTx) InsertDailyRecord(ctx context.Context, record *storage.DailyRecord) (bool, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO daily_records (
			id, user_id, record_date,
			weight, height, age, city, water_goal, calorie_goal,
			logged_water, logged_calories, burned_calories, net_calories
		)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, record_date) DO NOTHING
	`

	tag, err := t.tx.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.RecordDate,
		record.Weight,
		record.Height,
		record.Age,
		record.City,
		record.WaterGoal,
		record.CalorieGoal,
		record.LoggedWater,
		record.LoggedCalories,
		record.BurnedCalories,
		record.NetCalories,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *postgresTx) UpdateDailyProfile(ctx context.Context, userID, date string, profile storage.ProfileFields) (*storage.DailyRecord, error) {
	query := `
		UPDATE daily_records
		SET weight = $3, height = $4, age = $5, city = $6,
		    water_goal = $7, calorie_goal = $8, updated_at = now()
		WHERE user_id = $1 AND record_date = $2::date
		RETURNING ` + recordColumns

	return scanRecord(t.tx.QueryRow(ctx, query,
		userID,
		date,
		profile.Weight,
		profile.Height,
		profile.Age,
		profile.City,
		profile.WaterGoal,
		profile.CalorieGoal,
	))
}

// AddToDailyRecord — одно UPDATE под блокировкой строки, без read-modify-write
func (t *postgresTx) AddToDailyRecord(ctx context.Context, userID, date string, delta storage.Delta) (*storage.DailyRecord, error) {
	query := `
		UPDATE daily_records
		SET logged_water    = logged_water + $3,
		    logged_calories = logged_calories + $4,
		    burned_calories = burned_calories + $5,
		    net_calories    = (logged_calories + $4) - (burned_calories + $5),
		    updated_at      = now()
		WHERE user_id = $1 AND record_date = $2::date
		RETURNING ` + recordColumns

	return scanRecord(t.tx.QueryRow(ctx, query, userID, date, delta.Water, delta.Calories, delta.Burned))
}

func (t *postgresTx) RecalculateNet(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	query := `
		UPDATE daily_records
		SET net_calories = logged_calories - burned_calories, updated_at = now()
		WHERE user_id = $1 AND record_date = $2::date
		RETURNING ` + recordColumns

	return scanRecord(t.tx.QueryRow(ctx, query, userID, date))
}

func (t *postgresTx) InsertActivityLog(ctx context.Context, log *storage.ActivityLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	query := `
		INSERT INTO activity_logs (id, user_id, activity_type, duration_minutes, calories_burned, activity_date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		RETURNING created_at
	`
	return t.tx.QueryRow(ctx, query,
		log.ID,
		log.UserID,
		log.ActivityType,
		log.DurationMinutes,
		log.CaloriesBurned,
		log.ActivityDate,
	).Scan(&log.CreatedAt)
}

func (t *postgresTx) InsertFoodEntry(ctx context.Context, entry *storage.FoodEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO food_history (id, user_id, food_name, calories_per_100g, grams, calories, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
		RETURNING created_at
	`
	return t.tx.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.FoodName,
		entry.CaloriesPer100g,
		entry.Grams,
		entry.Calories,
		entry.EntryDate,
	).Scan(&entry.CreatedAt)
}

func scanRecord(row pgx.Row) (*storage.DailyRecord, error) {
	var rec storage.DailyRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RecordDate,
		&rec.Weight,
		&rec.Height,
		&rec.Age,
		&rec.City,
		&rec.WaterGoal,
		&rec.CalorieGoal,
		&rec.LoggedWater,
		&rec.LoggedCalories,
		&rec.BurnedCalories,
		&rec.NetCalories,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}
