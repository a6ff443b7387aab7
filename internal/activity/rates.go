package activity

import (
	"math"
	"strings"
)

// DefaultRate — ккал за 30 минут для неизвестной активности
const DefaultRate = 300

// Rate — строка таблицы расхода калорий
type Rate struct {
	Pattern      string `json:"activity_type"`
	KcalPer30Min int    `json:"kcal_per_30min"`
}

// RateTable is matched top to bottom; order decides ties
// ("спортивная ходьба" must precede "ходьба").
var RateTable = []Rate{
	{"бег", 300},
	{"спортивная ходьба", 400},
	{"ходьба", 400},
	{"плавание", 600},
	{"силовая тренировка", 300},
	{"йога", 150},
	{"велосипед", 300},
	{"футбол", 400},
	{"баскетбол", 350},
	{"теннис", 350},
}

// LookupRate returns the first table entry that contains the typed activity
// or is contained in it, case-insensitively. No match yields DefaultRate.
func LookupRate(activityType string) (rate int, matched string, ok bool) {
	typed := strings.ToLower(strings.TrimSpace(activityType))
	if typed == "" {
		return DefaultRate, "", false
	}
	for _, r := range RateTable {
		if strings.Contains(typed, r.Pattern) || strings.Contains(r.Pattern, typed) {
			return r.KcalPer30Min, r.Pattern, true
		}
	}
	return DefaultRate, "", false
}

// CaloriesBurned = round(rate/30 * minutes).
func CaloriesBurned(ratePer30Min, minutes int) int {
	return int(math.Round(float64(ratePer30Min) / 30 * float64(minutes)))
}
