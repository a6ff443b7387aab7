package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DateLayout — формат календарной даты записей (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// ErrNotFound возвращается, когда запись не найдена
var ErrNotFound = errors.New("not found")

// User — строка таблицы users
type User struct {
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileFields — поля профиля, копируемые в каждую дневную запись.
// nil означает «не задано» (вырожденная запись без профиля).
type ProfileFields struct {
	Weight      *float64
	Height      *float64
	Age         *int
	City        *string
	WaterGoal   *int
	CalorieGoal *float64
}

// DailyRecord — дневная запись пользователя, одна на (user_id, record_date)
type DailyRecord struct {
	ID         uuid.UUID
	UserID     string
	RecordDate string // YYYY-MM-DD
	ProfileFields
	LoggedWater    int
	LoggedCalories float64
	BurnedCalories float64
	NetCalories    float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Delta — приращения счётчиков дневной записи
type Delta struct {
	Water    int
	Calories float64
	Burned   float64
}

// ActivityLog — строка таблицы activity_logs
type ActivityLog struct {
	ID              uuid.UUID
	UserID          string
	ActivityType    string
	DurationMinutes int
	CaloriesBurned  int
	ActivityDate    string // YYYY-MM-DD
	CreatedAt       time.Time
}

// FoodEntry — строка таблицы food_history
type FoodEntry struct {
	ID              uuid.UUID
	UserID          string
	FoodName        string
	CaloriesPer100g float64
	Grams           float64
	Calories        float64
	EntryDate       string // YYYY-MM-DD
	CreatedAt       time.Time
}

// ActivityTypeStats — агрегат по одному типу активности
type ActivityTypeStats struct {
	ActivityType  string
	Count         int
	TotalMinutes  int
	TotalCalories int
}

// DailyActivityTotals — активности одного дня
type DailyActivityTotals struct {
	Date           string
	Activities     int
	Minutes        int
	CaloriesBurned int
}

// ActivityStats — агрегат активностей за период
type ActivityStats struct {
	TotalActivities     int
	TotalMinutes        int
	TotalCaloriesBurned int
	ByType              []ActivityTypeStats // total_calories DESC, activity_type ASC
}

// LedgerTx — операции внутри одной транзакции.
// Изменения видны другим только после успешного завершения InTx.
type LedgerTx interface {
	// UpsertUser создаёт пользователя или обновляет имя
	UpsertUser(ctx context.Context, user *User) error

	// GetDailyRecord возвращает запись за дату или ErrNotFound
	GetDailyRecord(ctx context.Context, userID, date string) (*DailyRecord, error)

	// GetLatestDailyRecordBefore возвращает последнюю запись строго до даты или ErrNotFound
	GetLatestDailyRecordBefore(ctx context.Context, userID, date string) (*DailyRecord, error)

	// InsertDailyRecord вставляет запись, если для (user_id, record_date) её ещё нет.
	// created=false означает, что запись уже существовала.
	InsertDailyRecord(ctx context.Context, record *DailyRecord) (created bool, err error)

	// UpdateDailyProfile перезаписывает поля профиля, не трогая счётчики
	UpdateDailyProfile(ctx context.Context, userID, date string, profile ProfileFields) (*DailyRecord, error)

	// AddToDailyRecord прибавляет delta к счётчикам и пересчитывает net_calories
	AddToDailyRecord(ctx context.Context, userID, date string, delta Delta) (*DailyRecord, error)

	// RecalculateNet выставляет net_calories = logged_calories - burned_calories
	RecalculateNet(ctx context.Context, userID, date string) (*DailyRecord, error)

	InsertActivityLog(ctx context.Context, log *ActivityLog) error
	InsertFoodEntry(ctx context.Context, entry *FoodEntry) error
}

// Ledger — хранилище дневных записей, активностей и истории питания
type Ledger interface {
	// InTx выполняет fn в транзакции: commit при nil, rollback при ошибке
	InTx(ctx context.Context, fn func(tx LedgerTx) error) error

	GetUser(ctx context.Context, userID string) (*User, error)

	// GetLatestDailyRecord — последняя запись по дате (при равенстве — по created_at)
	GetLatestDailyRecord(ctx context.Context, userID string) (*DailyRecord, error)

	// ListDailyRecords — записи за [from, to] по возрастанию даты
	ListDailyRecords(ctx context.Context, userID, from, to string) ([]DailyRecord, error)

	// ListActivityLogs — активности за дату, новые первыми
	ListActivityLogs(ctx context.Context, userID, date string) ([]ActivityLog, error)

	// GetActivityStats — агрегаты активностей за [from, to]
	GetActivityStats(ctx context.Context, userID, from, to string) (*ActivityStats, error)

	// GetDailyActivityTotals — активности за [from, to] по дням, по возрастанию даты;
	// дни без активностей не возвращаются
	GetDailyActivityTotals(ctx context.Context, userID, from, to string) ([]DailyActivityTotals, error)

	// ListFoodEntries — история питания за дату, новые первыми
	ListFoodEntries(ctx context.Context, userID, date string) ([]FoodEntry, error)

	// ClearAll удаляет все данные (только для тестов/сброса)
	ClearAll(ctx context.Context) error

	// Close закрывает соединение (для Postgres)
	Close() error
}
