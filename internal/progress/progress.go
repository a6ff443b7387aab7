// Package progress derives goal progress from daily record state. No I/O.
package progress

import (
	"math"
	"strings"

	"github.com/fdg312/activelife/internal/storage"
)

// DefaultBarWidth — число сегментов полосы прогресса
const DefaultBarWidth = 10

// GoalOrOne substitutes 1 for an absent or non-positive goal so percentages
// never divide by zero. Every percentage goes through it.
func GoalOrOne(goal float64) float64 {
	if goal <= 0 || math.IsNaN(goal) {
		return 1
	}
	return goal
}

// Percent returns round(100*logged/goal) clamped to [0, 100].
func Percent(logged, goal float64) int {
	p := math.Round(100 * logged / GoalOrOne(goal))
	switch {
	case p > 100:
		return 100
	case p < 0 || math.IsNaN(p):
		return 0
	}
	return int(p)
}

// Remaining returns max(goal - logged, 0).
func Remaining(goal, logged float64) float64 {
	return math.Max(goal-logged, 0)
}

// Bar — полоса прогресса как число заполненных и пустых сегментов
type Bar struct {
	Filled int `json:"filled"`
	Empty  int `json:"empty"`
}

// NewBar splits width segments by percent; for width 10 filled = floor(percent/10).
func NewBar(percent, width int) Bar {
	if width <= 0 {
		width = DefaultBarWidth
	}
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	return Bar{Filled: filled, Empty: width - filled}
}

func (b Bar) String() string {
	return strings.Repeat("█", b.Filled) + strings.Repeat("░", b.Empty)
}

// NetKind — знак чистого баланса калорий
type NetKind string

const (
	Surplus  NetKind = "surplus"
	Deficit  NetKind = "deficit"
	Balanced NetKind = "balanced"
)

// NetStatus — результат Net; Amount = logged - burned
type NetStatus struct {
	Kind   NetKind `json:"kind"`
	Amount float64 `json:"amount"`
}

// Net classifies logged - burned calories.
func Net(logged, burned float64) NetStatus {
	amount := logged - burned
	switch {
	case amount > 0:
		return NetStatus{Kind: Surplus, Amount: amount}
	case amount < 0:
		return NetStatus{Kind: Deficit, Amount: amount}
	default:
		return NetStatus{Kind: Balanced, Amount: 0}
	}
}

// Label returns the user-facing wording for the status.
func (n NetStatus) Label() string {
	switch n.Kind {
	case Surplus:
		return "Профицит"
	case Deficit:
		return "Дефицит"
	default:
		return "Баланс"
	}
}

// Goal — прогресс по одной цели
type Goal struct {
	Goal      float64 `json:"goal"`
	Logged    float64 `json:"logged"`
	Remaining float64 `json:"remaining"`
	Percent   int     `json:"percent"`
	Bar       string  `json:"bar"`
}

func newGoal(goal, logged float64) Goal {
	p := Percent(logged, goal)
	return Goal{
		Goal:      goal,
		Logged:    logged,
		Remaining: Remaining(goal, logged),
		Percent:   p,
		Bar:       NewBar(p, DefaultBarWidth).String(),
	}
}

// Summary — прогресс дневной записи
type Summary struct {
	Water          Goal      `json:"water"`
	Calories       Goal      `json:"calories"`
	BurnedCalories float64   `json:"burned_calories"`
	Net            NetStatus `json:"net"`
}

// Summarize builds water and calorie progress plus the net status for a record.
func Summarize(rec storage.DailyRecord) Summary {
	var waterGoal, calorieGoal float64
	if rec.WaterGoal != nil {
		waterGoal = float64(*rec.WaterGoal)
	}
	if rec.CalorieGoal != nil {
		calorieGoal = *rec.CalorieGoal
	}

	return Summary{
		Water:          newGoal(waterGoal, float64(rec.LoggedWater)),
		Calories:       newGoal(calorieGoal, rec.LoggedCalories),
		BurnedCalories: rec.BurnedCalories,
		Net:            Net(rec.LoggedCalories, rec.BurnedCalories),
	}
}
