package ledger

import "github.com/fdg312/activelife/internal/storage"

// CarryForward builds a fresh record for date. Profile fields and goals are
// copied from prev, counters start at zero. A nil prev yields the degenerate
// record: identifier and date only.
func CarryForward(prev *storage.DailyRecord, userID, date string) storage.DailyRecord {
	rec := storage.DailyRecord{
		UserID:     userID,
		RecordDate: date,
	}
	if prev == nil {
		return rec
	}

	rec.ProfileFields = storage.ProfileFields{
		Weight:      copyPtr(prev.Weight),
		Height:      copyPtr(prev.Height),
		Age:         copyPtr(prev.Age),
		City:        copyPtr(prev.City),
		WaterGoal:   copyPtr(prev.WaterGoal),
		CalorieGoal: copyPtr(prev.CalorieGoal),
	}
	return rec
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
