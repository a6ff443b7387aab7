package reports

import (
	"github.com/fdg312/activelife/internal/apperr"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	DefaultDays = 7
)

var (
	ErrInvalidFormat = apperr.Validation("invalid_format", "format must be 'pdf' or 'csv'")
	// ErrExportUnavailable: BLOB_MODE=local, нет хранилища для выгрузки
	ErrExportUnavailable = &apperr.Error{
		Kind:    apperr.KindStorage,
		Code:    "export_unavailable",
		Message: "report export requires object storage (BLOB_MODE=s3)",
	}
)

// Row — одна дневная запись отчёта
type Row struct {
	Date            string   `json:"date"`
	LoggedWater     int      `json:"logged_water"`
	WaterGoal       *int     `json:"water_goal"`
	LoggedCalories  float64  `json:"logged_calories"`
	CalorieGoal     *float64 `json:"calorie_goal"`
	BurnedCalories  float64  `json:"burned_calories"`
	NetCalories     float64  `json:"net_calories"`
	Activities      int      `json:"activities"`
	ActivityMinutes int      `json:"activity_minutes"`
}

// TypeTotal — итог по типу активности за период
type TypeTotal struct {
	ActivityType  string `json:"activity_type"`
	Count         int    `json:"count"`
	TotalMinutes  int    `json:"total_minutes"`
	TotalCalories int    `json:"total_calories"`
}

// Totals — суммы за период
type Totals struct {
	LoggedWater     int     `json:"logged_water"`
	LoggedCalories  float64 `json:"logged_calories"`
	BurnedCalories  float64 `json:"burned_calories"`
	NetCalories     float64 `json:"net_calories"`
	Activities      int     `json:"activities"`
	ActivityMinutes int     `json:"activity_minutes"`
	DaysRecorded    int     `json:"days_recorded"`
}

// Report — сводка за последние Days дней, включая сегодня
type Report struct {
	UserID string      `json:"user_id"`
	Days   int         `json:"days"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Rows   []Row       `json:"rows"`
	ByType []TypeTotal `json:"by_type"`
	Totals Totals      `json:"totals"`
}

// ExportRequest — запрос для POST /v1/reports/daily/export
type ExportRequest struct {
	UserID string `json:"user_id"`
	Format string `json:"format"`
	Days   int    `json:"days"`
}

// ExportResponse — ссылка на выгруженный отчёт
type ExportResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Days      int    `json:"days"`
	SizeBytes int64  `json:"size_bytes"`
	ExpiresIn int64  `json:"expires_in"`
}
