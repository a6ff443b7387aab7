package ledger

import (
	"time"

	"github.com/fdg312/activelife/internal/progress"
	"github.com/fdg312/activelife/internal/storage"
)

// RecordDTO — дневная запись для API
type RecordDTO struct {
	UserID         string    `json:"user_id"`
	RecordDate     string    `json:"record_date"`
	Weight         *float64  `json:"weight"`
	Height         *float64  `json:"height"`
	Age            *int      `json:"age"`
	City           *string   `json:"city"`
	WaterGoal      *int      `json:"water_goal"`
	CalorieGoal    *float64  `json:"calorie_goal"`
	LoggedWater    int       `json:"logged_water"`
	LoggedCalories float64   `json:"logged_calories"`
	BurnedCalories float64   `json:"burned_calories"`
	NetCalories    float64   `json:"net_calories"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecordResponse — запись вместе с прогрессом
type RecordResponse struct {
	Record   RecordDTO        `json:"record"`
	Progress progress.Summary `json:"progress"`
}

// WaterRequest — запрос для POST /v1/water
type WaterRequest struct {
	UserID   string `json:"user_id"`
	AmountML int    `json:"amount_ml"`
}

func ToDTO(rec *storage.DailyRecord) RecordDTO {
	return RecordDTO{
		UserID:         rec.UserID,
		RecordDate:     rec.RecordDate,
		Weight:         rec.Weight,
		Height:         rec.Height,
		Age:            rec.Age,
		City:           rec.City,
		WaterGoal:      rec.WaterGoal,
		CalorieGoal:    rec.CalorieGoal,
		LoggedWater:    rec.LoggedWater,
		LoggedCalories: rec.LoggedCalories,
		BurnedCalories: rec.BurnedCalories,
		NetCalories:    rec.NetCalories,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func NewRecordResponse(rec *storage.DailyRecord) RecordResponse {
	return RecordResponse{Record: ToDTO(rec), Progress: progress.Summarize(*rec)}
}
