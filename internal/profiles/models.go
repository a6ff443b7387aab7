package profiles

import (
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/progress"
)

// RegisterRequest — запрос для POST /v1/profile.
// Нулевые water_goal / calorie_goal означают «рассчитать автоматически».
type RegisterRequest struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Weight      *float64 `json:"weight"`
	Height      *float64 `json:"height"`
	Age         *int     `json:"age"`
	City        string   `json:"city"`
	WaterGoal   int      `json:"water_goal"`
	CalorieGoal float64  `json:"calorie_goal"`
}

// ProfileView — ответ для GET /v1/profile
type ProfileView struct {
	UserID   string           `json:"user_id"`
	Name     string           `json:"name"`
	Record   ledger.RecordDTO `json:"record"`
	Progress progress.Summary `json:"progress"`
}
