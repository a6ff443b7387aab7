package activity

import (
	"time"

	"github.com/fdg312/activelife/internal/ledger"
)

// LogRequest — запрос для POST /v1/activities
type LogRequest struct {
	UserID          string `json:"user_id"`
	ActivityType    string `json:"activity_type"`
	DurationMinutes int    `json:"duration_minutes"`
}

// LogResult — результат записи активности
type LogResult struct {
	CaloriesBurned  int              `json:"calories_burned"`
	ActivityType    string           `json:"activity_type"`
	DurationMinutes int              `json:"duration_minutes"`
	MatchedType     string           `json:"matched_type,omitempty"`
	Record          ledger.RecordDTO `json:"record"`
}

// EventDTO — запись журнала активностей
type EventDTO struct {
	ID              string    `json:"id"`
	ActivityType    string    `json:"activity_type"`
	DurationMinutes int       `json:"duration_minutes"`
	CaloriesBurned  int       `json:"calories_burned"`
	ActivityDate    string    `json:"activity_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventsResponse — ответ для GET /v1/activities/today
type EventsResponse struct {
	Activities []EventDTO `json:"activities"`
}

// TypeStats — агрегат по типу активности
type TypeStats struct {
	ActivityType  string `json:"activity_type"`
	Count         int    `json:"count"`
	TotalMinutes  int    `json:"total_minutes"`
	TotalCalories int    `json:"total_calories"`
}

// StatsResponse — ответ для GET /v1/activities/stats
type StatsResponse struct {
	Days                int         `json:"days"`
	From                string      `json:"from"`
	To                  string      `json:"to"`
	TotalActivities     int         `json:"total_activities"`
	TotalMinutes        int         `json:"total_minutes"`
	TotalCaloriesBurned int         `json:"total_calories_burned"`
	ByType              []TypeStats `json:"by_type"`
}

// RatesResponse — ответ для GET /v1/activities/types
type RatesResponse struct {
	Rates       []Rate `json:"rates"`
	DefaultRate int    `json:"default_rate"`
}
