package profiles

import (
	"math"

	"github.com/fdg312/activelife/internal/apperr"
)

// ErrGoalUnderivable: calorie goal requested from a profile lacking weight, height or age.
var ErrGoalUnderivable = apperr.Validation("goal_underivable", "weight, height and age are required to derive the calorie goal")

// WaterGoal returns explicit when positive, otherwise 30 ml per kg of weight.
// Without weight the derived goal is 0.
func WaterGoal(weight *float64, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if weight == nil {
		return 0
	}
	return int(math.Round(*weight * 30))
}

// CalorieGoal returns explicit when positive, otherwise
// 10*weight + 6.25*height - 5*age. The formula carries no sex term.
func CalorieGoal(weight, height *float64, age *int, explicit float64) (float64, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if weight == nil || height == nil || age == nil {
		return 0, ErrGoalUnderivable
	}
	w, h, a := *weight, *height, float64(*age)
	return 10*w + 6.25*h - 5*a, nil
}
