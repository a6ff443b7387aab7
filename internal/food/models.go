package food

import (
	"time"

	"github.com/fdg312/activelife/internal/ledger"
)

// LogRequest — запрос для POST /v1/food.
// Без calories_per_100g значение ищется во внешнем справочнике.
type LogRequest struct {
	UserID          string  `json:"user_id"`
	FoodName        string  `json:"food_name"`
	Grams           float64 `json:"grams"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
}

// LogResult — результат записи приёма пищи
type LogResult struct {
	FoodName        string           `json:"food_name"`
	Grams           float64          `json:"grams"`
	CaloriesPer100g float64          `json:"calories_per_100g"`
	TotalCalories   float64          `json:"total_calories"`
	Record          ledger.RecordDTO `json:"record"`
}

// EntryDTO — запись истории питания
type EntryDTO struct {
	ID              string    `json:"id"`
	FoodName        string    `json:"food_name"`
	CaloriesPer100g float64   `json:"calories_per_100g"`
	Grams           float64   `json:"grams"`
	Calories        float64   `json:"calories"`
	EntryDate       string    `json:"entry_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntriesResponse — ответ для GET /v1/food/today
type EntriesResponse struct {
	Entries       []EntryDTO `json:"entries"`
	TotalCalories float64    `json:"total_calories"`
}
