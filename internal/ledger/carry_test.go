package ledger

import (
	"testing"

	"github.com/fdg312/activelife/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarryForwardCopiesProfileAndZeroesCounters(t *testing.T) {
	weight, height, age, city, water, kcal := 70.0, 175.0, 30, "Казань", 2100, 1643.75
	prev := &storage.DailyRecord{
		UserID:     "u1",
		RecordDate: "2026-01-01",
		ProfileFields: storage.ProfileFields{
			Weight: &weight, Height: &height, Age: &age, City: &city,
			WaterGoal: &water, CalorieGoal: &kcal,
		},
		LoggedWater:    1500,
		LoggedCalories: 900,
		BurnedCalories: 300,
		NetCalories:    600,
	}

	next := CarryForward(prev, "u1", "2026-01-03")

	assert.Equal(t, "2026-01-03", next.RecordDate)
	assert.Equal(t, prev.ProfileFields, next.ProfileFields)
	assert.Zero(t, next.LoggedWater)
	assert.Zero(t, next.LoggedCalories)
	assert.Zero(t, next.BurnedCalories)
	assert.Zero(t, next.NetCalories)

	// копия не разделяет указатели с исходной записью
	require.NotNil(t, next.Weight)
	*next.Weight = 1
	assert.Equal(t, 70.0, *prev.Weight)
}

func TestCarryForwardDegenerate(t *testing.T) {
	next := CarryForward(nil, "u1", "2026-01-03")

	assert.Equal(t, storage.DailyRecord{UserID: "u1", RecordDate: "2026-01-03"}, next)
}
