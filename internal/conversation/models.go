package conversation

import "time"

// Step — текущий шаг диалога пользователя
type Step string

const (
	StepIdle Step = "idle"

	// регистрация
	StepWeight      Step = "registration.weight"
	StepHeight      Step = "registration.height"
	StepAge         Step = "registration.age"
	StepCity        Step = "registration.city"
	StepWaterGoal   Step = "registration.water_goal"
	StepCalorieGoal Step = "registration.calorie_goal"

	StepWaterAmount Step = "water.amount"

	StepFoodName  Step = "food.name"
	StepFoodRate  Step = "food.rate"
	StepFoodGrams Step = "food.grams"

	StepActivityType     Step = "activity.type"
	StepActivityDuration Step = "activity.duration"
)

// Кнопки (actions)
const (
	ActionStart          = "start"
	ActionSetProfile     = "set_profile"
	ActionProfile        = "profile"
	ActionWaterLog       = "water_log"
	ActionFoodLog        = "food_log"
	ActionActivityLog    = "activity_log"
	ActionActivityCustom = "activity_custom"
	ActionActivityStats  = "activity_stats"
	ActionCancel         = "cancel"

	// ActivityActionPrefix + тип, например "activity:бег"
	ActivityActionPrefix = "activity:"
)

// Data — введённые на предыдущих шагах значения
type Data struct {
	Weight          *float64 `json:"weight,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	Age             *int     `json:"age,omitempty"`
	City            string   `json:"city,omitempty"`
	WaterGoal       *int     `json:"water_goal,omitempty"`
	FoodName        string   `json:"food_name,omitempty"`
	CaloriesPer100g float64  `json:"calories_per_100g,omitempty"`
	ActivityType    string   `json:"activity_type,omitempty"`
}

// Session — состояние диалога одного пользователя
type Session struct {
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Data      Data      `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSession(userID string) *Session {
	return &Session{UserID: userID, Step: StepIdle}
}

// reset returns the session to idle and forgets collected data.
func (s *Session) reset() {
	s.Step = StepIdle
	s.Data = Data{}
}

// Message — входящее сообщение: текст или нажатая кнопка
type Message struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
}

// Button — предлагаемое действие
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Reply — ответ контроллера
type Reply struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
	Step    Step       `json:"step"`
}
