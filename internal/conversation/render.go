package conversation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fdg312/activelife/internal/activity"
	"github.com/fdg312/activelife/internal/food"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/profiles"
	"github.com/fdg312/activelife/internal/progress"
)

const separator = "━━━━━━━━━━━━━━━━━━"

func renderRegistered(view *profiles.ProfileView) string {
	rec := view.Record
	var b strings.Builder
	fmt.Fprintf(&b, "Пользователь: %s\n", orDash(view.Name))
	fmt.Fprintf(&b, "Вес: %s кг, рост: %s см, возраст: %s\n",
		floatOrDash(rec.Weight), floatOrDash(rec.Height), intOrDash(rec.Age))
	fmt.Fprintf(&b, "Город: %s\n", stringOrDash(rec.City))
	fmt.Fprintf(&b, "Норма воды: %s мл\n", intOrDash(rec.WaterGoal))
	fmt.Fprintf(&b, "Норма калорий: %s ккал", floatOrDash(rec.CalorieGoal))
	return b.String()
}

func renderProfile(view *profiles.ProfileView) string {
	rec := view.Record
	p := view.Progress

	var b strings.Builder
	b.WriteString("Ваш профиль\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Пользователь: %s\n", orDash(view.Name))
	fmt.Fprintf(&b, "Вес: %s кг\n", floatOrDash(rec.Weight))
	fmt.Fprintf(&b, "Рост: %s см\n", floatOrDash(rec.Height))
	fmt.Fprintf(&b, "Возраст: %s лет\n", intOrDash(rec.Age))
	fmt.Fprintf(&b, "Город: %s\n", stringOrDash(rec.City))
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Вода сегодня: %d из %s мл\n", rec.LoggedWater, formatNumber(progress.GoalOrOne(p.Water.Goal)))
	fmt.Fprintf(&b, "%s %d%%\n", p.Water.Bar, p.Water.Percent)
	fmt.Fprintf(&b, "Калории сегодня: %.0f из %s ккал\n", rec.LoggedCalories, formatNumber(progress.GoalOrOne(p.Calories.Goal)))
	fmt.Fprintf(&b, "%s %d%%\n", p.Calories.Bar, p.Calories.Percent)
	fmt.Fprintf(&b, "Сожжено калорий: %.0f ккал\n", rec.BurnedCalories)
	fmt.Fprintf(&b, "%s\n", renderNet(p.Net))
	fmt.Fprintf(&b, "Последнее обновление: %s", rec.RecordDate)
	return b.String()
}

func renderWater(ml int, resp ledger.RecordResponse) string {
	w := resp.Progress.Water
	var b strings.Builder
	fmt.Fprintf(&b, "Добавлено %d мл воды\n\n", ml)
	b.WriteString("Прогресс по воде:\n")
	fmt.Fprintf(&b, "%d/%s мл\n", resp.Record.LoggedWater, formatNumber(progress.GoalOrOne(w.Goal)))
	fmt.Fprintf(&b, "%s %d%%\n", w.Bar, w.Percent)
	fmt.Fprintf(&b, "Осталось: %s мл", formatNumber(w.Remaining))
	return b.String()
}

// renderFood also reports whether the daily calorie goal is reached.
func renderFood(result *food.LogResult) (string, bool) {
	rec := result.Record
	var goal float64
	if rec.CalorieGoal != nil {
		goal = *rec.CalorieGoal
	}
	percent := progress.Percent(rec.LoggedCalories, goal)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", capitalize(result.FoodName))
	fmt.Fprintf(&b, "Количество: %sг\n", formatNumber(result.Grams))
	fmt.Fprintf(&b, "Калорийность: %s ккал/100г\n", formatNumber(result.CaloriesPer100g))
	fmt.Fprintf(&b, "Итого: %.0f ккал\n\n", result.TotalCalories)
	b.WriteString("Прогресс по калориям:\n")
	fmt.Fprintf(&b, "%.0f/%s ккал\n", rec.LoggedCalories, formatNumber(progress.GoalOrOne(goal)))
	fmt.Fprintf(&b, "%s %d%%\n", progress.NewBar(percent, progress.DefaultBarWidth), percent)
	fmt.Fprintf(&b, "Осталось: %.0f ккал", progress.Remaining(goal, rec.LoggedCalories))

	reached := percent >= 100
	if reached {
		b.WriteString("\nДостигнута дневная норма калорий!")
	}
	return b.String(), reached
}

func renderActivity(result *activity.LogResult, today []activity.EventDTO) string {
	rec := result.Record
	var goal float64
	if rec.CalorieGoal != nil {
		goal = *rec.CalorieGoal
	}
	percent := progress.Percent(rec.LoggedCalories, goal)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", capitalize(result.ActivityType))
	fmt.Fprintf(&b, "Продолжительность: %d мин\n", result.DurationMinutes)
	fmt.Fprintf(&b, "Сожжено калорий: %d ккал\n\n", result.CaloriesBurned)
	fmt.Fprintf(&b, "Сожжено сегодня: %.0f ккал\n\n", rec.BurnedCalories)

	if len(today) > 0 {
		b.WriteString("Сегодняшние активности:\n")
		for _, e := range today {
			fmt.Fprintf(&b, "• %s: %d мин, %d ккал\n", capitalize(e.ActivityType), e.DurationMinutes, e.CaloriesBurned)
		}
		b.WriteString("\n")
	}

	b.WriteString("Калорийный баланс:\n")
	fmt.Fprintf(&b, "Потреблено: %.0f ккал\n", rec.LoggedCalories)
	fmt.Fprintf(&b, "Сожжено: %.0f ккал\n", rec.BurnedCalories)
	fmt.Fprintf(&b, "%s\n\n", renderNet(progress.Net(rec.LoggedCalories, rec.BurnedCalories)))
	fmt.Fprintf(&b, "%s %d%%", progress.NewBar(percent, progress.DefaultBarWidth), percent)
	return b.String()
}

func renderStats(stats *activity.StatsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Статистика активности за %d дн. (%s – %s)\n", stats.Days, stats.From, stats.To)
	if stats.TotalActivities == 0 {
		b.WriteString("Активностей пока нет.")
		return b.String()
	}
	fmt.Fprintf(&b, "Всего активностей: %d\n", stats.TotalActivities)
	fmt.Fprintf(&b, "Всего минут: %d\n", stats.TotalMinutes)
	fmt.Fprintf(&b, "Сожжено: %d ккал\n", stats.TotalCaloriesBurned)
	for _, t := range stats.ByType {
		fmt.Fprintf(&b, "\n• %s: %d раз, %d мин, %d ккал", capitalize(t.ActivityType), t.Count, t.TotalMinutes, t.TotalCalories)
	}
	return b.String()
}

func renderNet(n progress.NetStatus) string {
	switch n.Kind {
	case progress.Surplus:
		return fmt.Sprintf("%s: +%.0f ккал", n.Label(), n.Amount)
	case progress.Deficit:
		return fmt.Sprintf("%s: %.0f ккал", n.Label(), n.Amount)
	default:
		return n.Label() + ": 0 ккал"
	}
}

// parseNumber accepts both "72.5" and "72,5".
func parseNumber(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(text), ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseInt(text string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	return v, err == nil
}

// formatNumber: не больше одного знака после запятой, без хвостовых нулей
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Не указан"
	}
	return s
}

func stringOrDash(s *string) string {
	if s == nil {
		return "Не указан"
	}
	return orDash(*s)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "Не указан"
	}
	return formatNumber(*v)
}

func intOrDash(v *int) string {
	if v == nil {
		return "Не указан"
	}
	return strconv.Itoa(*v)
}
