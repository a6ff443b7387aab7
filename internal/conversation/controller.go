package conversation

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/activity"
	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/food"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/profiles"
)

// Controller ведёт пошаговый диалог поверх сервисов журнала.
// Состояние живёт только в SessionStore, одна сессия на пользователя.
type Controller struct {
	store    SessionStore
	profiles *profiles.Service
	ledger   *ledger.Service
	activity *activity.Service
	food     *food.Service
	logger   *zap.Logger
}

func NewController(
	store SessionStore,
	profilesService *profiles.Service,
	ledgerService *ledger.Service,
	activityService *activity.Service,
	foodService *food.Service,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		profiles: profilesService,
		ledger:   ledgerService,
		activity: activityService,
		food:     foodService,
		logger:   logger,
	}
}

// Handle processes one message. Invalid input yields a re-prompt and leaves
// the session untouched; only storage failures come back as errors.
func (c *Controller) Handle(ctx context.Context, msg Message) (*Reply, error) {
	userID := strings.TrimSpace(msg.UserID)
	if userID == "" {
		return nil, ledger.ErrUserRequired
	}

	sess, err := c.store.Load(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("load session", err)
	}

	if action := strings.TrimSpace(msg.Action); action != "" {
		return c.handleAction(ctx, sess, msg.Name, action)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "/start" {
		return c.handleAction(ctx, sess, msg.Name, ActionStart)
	}
	return c.handleText(ctx, sess, msg.Name, text)
}

func (c *Controller) handleAction(ctx context.Context, sess *Session, name, action string) (*Reply, error) {
	if strings.HasPrefix(action, ActivityActionPrefix) {
		return c.selectActivity(ctx, sess, strings.TrimPrefix(action, ActivityActionPrefix))
	}

	switch action {
	case ActionStart:
		sess.reset()
		return c.save(ctx, sess, greeting(name), mainMenu())

	case ActionCancel:
		if err := c.store.Delete(ctx, sess.UserID); err != nil {
			return nil, apperr.Storage("delete session", err)
		}
		sess.reset()
		return reply(sess, "Действие отменено. Выберите действие:", mainMenu()), nil

	case ActionSetProfile:
		sess.reset()
		sess.Step = StepWeight
		return c.save(ctx, sess, "Давайте зарегистрируем ваши данные!\nВведите ваш вес (в кг):", nil)

	case ActionProfile:
		return c.profileReply(ctx, sess)

	case ActionWaterLog:
		sess.reset()
		sess.Step = StepWaterAmount
		return c.save(ctx, sess, "💧 Введите количество выпитой воды в мл:", nil)

	case ActionFoodLog:
		sess.reset()
		sess.Step = StepFoodName
		return c.save(ctx, sess, "Введите название продукта:\n\nПримеры: green apple, pizza, coffee...", nil)

	case ActionActivityLog:
		sess.reset()
		sess.Step = StepActivityType
		return c.save(ctx, sess,
			"🏃 Выберите тип активности:\n\nНажмите на одну из кнопок или введите свою активность",
			activityMenu())

	case ActionActivityCustom:
		sess.reset()
		sess.Step = StepActivityType
		return c.save(ctx, sess,
			"Введите название вашей активности:\n\nНапример: бокс, танцы, скалолазание, баскетбол", nil)

	case ActionActivityStats:
		return c.statsReply(ctx, sess)
	}

	return reply(sess, "Неизвестное действие. Выберите действие:", mainMenu()), nil
}

func (c *Controller) handleText(ctx context.Context, sess *Session, name, text string) (*Reply, error) {
	switch sess.Step {
	case StepWeight:
		v, ok := parseNumber(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число для веса:", nil), nil
		}
		if v < profiles.MinWeight || v > profiles.MaxWeight {
			return reply(sess, "Пожалуйста, введите корректный вес (1-300 кг):", nil), nil
		}
		sess.Data.Weight = &v
		sess.Step = StepHeight
		return c.save(ctx, sess, "Отлично! Теперь введите ваш рост (в см):", nil)

	case StepHeight:
		v, ok := parseNumber(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число для роста:", nil), nil
		}
		if v < profiles.MinHeight || v > profiles.MaxHeight {
			return reply(sess, "Пожалуйста, введите корректный рост (1-250 см):", nil), nil
		}
		sess.Data.Height = &v
		sess.Step = StepAge
		return c.save(ctx, sess, "Хорошо! Теперь введите ваш возраст:", nil)

	case StepAge:
		v, ok := parseInt(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число для возраста:", nil), nil
		}
		if v < profiles.MinAge || v > profiles.MaxAge {
			return reply(sess, "Пожалуйста, введите корректный возраст (1-120 лет):", nil), nil
		}
		sess.Data.Age = &v
		sess.Step = StepCity
		return c.save(ctx, sess, "Введите ваш город проживания:", nil)

	case StepCity:
		if n := utf8.RuneCountInString(text); n < profiles.MinCityLen || n > profiles.MaxCityLen {
			return reply(sess, "Пожалуйста, введите корректное название города:", nil), nil
		}
		sess.Data.City = text
		sess.Step = StepWaterGoal
		return c.save(ctx, sess,
			"Введите желаемую норму воды в мл, либо введите 0, если желаете, чтобы эта норма была рассчитана за вас:", nil)

	case StepWaterGoal:
		v, ok := parseInt(text)
		if !ok || v < 0 {
			return reply(sess, "Введите, пожалуйста, норму воды в мл (0 — рассчитать):", nil), nil
		}
		sess.Data.WaterGoal = &v
		sess.Step = StepCalorieGoal
		return c.save(ctx, sess,
			"Введите желаемую норму калорий, в ккал. Либо введите 0, если желаете, чтобы эта норма была рассчитана за вас:", nil)

	case StepCalorieGoal:
		v, ok := parseNumber(text)
		if !ok || v < 0 {
			return reply(sess, "Введите, пожалуйста, желаемую норму калорий в ккал:", nil), nil
		}
		return c.completeRegistration(ctx, sess, name, v)

	case StepWaterAmount:
		ml, ok := parseInt(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число", nil), nil
		}
		if ml <= 0 {
			return reply(sess, "Пожалуйста, введите положительное число.", nil), nil
		}
		if ml > ledger.MaxWaterDelta {
			return reply(sess, "За один раз можно добавить не больше 10000 мл", nil), nil
		}
		return c.logWater(ctx, sess, ml)

	case StepFoodName:
		return c.resolveFood(ctx, sess, text)

	case StepFoodRate:
		v, ok := parseNumber(text)
		if !ok || !food.ValidRate(v) {
			return reply(sess, "Введите калорийность числом от 1 до 1000 (ккал на 100 г):", nil), nil
		}
		sess.Data.CaloriesPer100g = v
		sess.Step = StepFoodGrams
		return c.save(ctx, sess,
			"Калорийность сохранена: "+formatNumber(v)+" ккал/100г\n\nТеперь введите количество в граммах:", nil)

	case StepFoodGrams:
		grams, ok := parseNumber(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число", nil), nil
		}
		if grams <= 0 {
			return reply(sess, "Количество должно быть положительным числом", nil), nil
		}
		if !food.ValidGrams(grams) {
			return reply(sess, "Количество не может превышать 10000 г", nil), nil
		}
		return c.logFood(ctx, sess, grams)

	case StepActivityType:
		return c.selectActivity(ctx, sess, text)

	case StepActivityDuration:
		minutes, ok := parseInt(text)
		if !ok {
			return reply(sess, "Пожалуйста, введите число (минуты)", nil), nil
		}
		if minutes < activity.MinDuration {
			return reply(sess, "Продолжительность должна быть положительным числом", nil), nil
		}
		if minutes > activity.MaxDuration {
			return reply(sess, "Продолжительность не может превышать 600 минут (10 часов)", nil), nil
		}
		return c.logActivity(ctx, sess, minutes)
	}

	return reply(sess, "Выберите действие:", mainMenu()), nil
}

func (c *Controller) completeRegistration(ctx context.Context, sess *Session, name string, calorieGoal float64) (*Reply, error) {
	req := profiles.RegisterRequest{
		UserID:      sess.UserID,
		Name:        name,
		Weight:      sess.Data.Weight,
		Height:      sess.Data.Height,
		Age:         sess.Data.Age,
		City:        sess.Data.City,
		CalorieGoal: calorieGoal,
	}
	if sess.Data.WaterGoal != nil {
		req.WaterGoal = *sess.Data.WaterGoal
	}

	view, err := c.profiles.Register(ctx, req)
	if err != nil {
		return c.reject(sess, err)
	}

	sess.reset()
	return c.save(ctx, sess,
		renderRegistered(view)+"\n\nПрофиль успешно заполнен.\nПредлагаем взглянуть на него.",
		[][]Button{{{Text: "👤 Профиль", Action: ActionProfile}}})
}

func (c *Controller) logWater(ctx context.Context, sess *Session, ml int) (*Reply, error) {
	rec, err := c.ledger.ApplyWaterDelta(ctx, sess.UserID, ml)
	if err != nil {
		return c.reject(sess, err)
	}

	sess.reset()
	return c.save(ctx, sess, renderWater(ml, ledger.NewRecordResponse(rec)), [][]Button{
		{{Text: "👤 Показать профиль", Action: ActionProfile}},
		{{Text: "💧 Добавить еще воды", Action: ActionWaterLog}},
	})
}

// resolveFood asks the nutrition lookup once and keeps the rate in the
// session; on lookup failure the user is asked for the rate manually.
func (c *Controller) resolveFood(ctx context.Context, sess *Session, name string) (*Reply, error) {
	if utf8.RuneCountInString(name) < 2 {
		return reply(sess, "Название продукта должно быть не менее 2 символов", nil), nil
	}

	rate, err := c.food.ResolveCaloriesPer100g(ctx, name)
	switch {
	case err == nil:
		sess.Data.FoodName = name
		sess.Data.CaloriesPer100g = rate
		sess.Step = StepFoodGrams
		return c.save(ctx, sess,
			capitalize(name)+"\nКалорийность: "+formatNumber(rate)+" ккал/100г\n\nВведите количество в граммах:", nil)

	case apperr.IsKind(err, apperr.KindLookup):
		c.logger.Debug("food lookup failed, asking for manual rate",
			zap.String("user_id", sess.UserID),
			zap.String("food", name),
			zap.Error(err),
		)
		sess.Data.FoodName = name
		sess.Data.CaloriesPer100g = 0
		sess.Step = StepFoodRate
		return c.save(ctx, sess,
			"Не удалось найти калорийность продукта «"+name+"».\nВведите калорийность вручную (ккал на 100 г):", nil)
	}
	return c.reject(sess, err)
}

func (c *Controller) logFood(ctx context.Context, sess *Session, grams float64) (*Reply, error) {
	result, err := c.food.LogFood(ctx, sess.UserID, sess.Data.FoodName, grams, sess.Data.CaloriesPer100g)
	if err != nil {
		return c.reject(sess, err)
	}

	text, reached := renderFood(result)
	buttons := [][]Button{
		{{Text: "Профиль", Action: ActionProfile}},
		{{Text: "Добавить еду", Action: ActionFoodLog}, {Text: "Добавить воду", Action: ActionWaterLog}},
	}
	if reached {
		buttons = [][]Button{
			{{Text: "Профиль", Action: ActionProfile}},
			{{Text: "Активность", Action: ActionActivityLog}},
		}
	}

	sess.reset()
	return c.save(ctx, sess, text, buttons)
}

func (c *Controller) selectActivity(ctx context.Context, sess *Session, activityType string) (*Reply, error) {
	activityType = strings.TrimSpace(activityType)
	if utf8.RuneCountInString(activityType) < 2 {
		return reply(sess, "Название активности должно быть не менее 2 символов", nil), nil
	}

	sess.Data = Data{ActivityType: activityType}
	sess.Step = StepActivityDuration
	return c.save(ctx, sess, capitalize(activityType)+"\n\nВведите продолжительность активности в минутах:", nil)
}

func (c *Controller) logActivity(ctx context.Context, sess *Session, minutes int) (*Reply, error) {
	if sess.Data.ActivityType == "" {
		sess.reset()
		return c.save(ctx, sess, "Ошибка: тип активности не найден", mainMenu())
	}

	result, err := c.activity.LogActivity(ctx, sess.UserID, sess.Data.ActivityType, minutes)
	if err != nil {
		return c.reject(sess, err)
	}
	today, err := c.activity.TodayActivities(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	sess.reset()
	return c.save(ctx, sess, renderActivity(result, today), [][]Button{
		{{Text: "Профиль", Action: ActionProfile}, {Text: "Статистика активности", Action: ActionActivityStats}},
		{{Text: "Добавить активность", Action: ActionActivityLog}, {Text: "Добавить еду", Action: ActionFoodLog}},
	})
}

func (c *Controller) profileReply(ctx context.Context, sess *Session) (*Reply, error) {
	view, err := c.profiles.View(ctx, sess.UserID)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		return reply(sess, "Профиль не найден.\nПожалуйста, заполните ваш профиль сначала.",
			[][]Button{{{Text: "Заполнить профиль", Action: ActionSetProfile}}}), nil
	}
	if err != nil {
		return nil, err
	}
	return reply(sess, renderProfile(view), mainMenu()), nil
}

func (c *Controller) statsReply(ctx context.Context, sess *Session) (*Reply, error) {
	stats, err := c.activity.Statistics(ctx, sess.UserID, activity.DefaultStatsDays)
	if err != nil {
		return nil, err
	}
	return reply(sess, renderStats(stats), [][]Button{
		{{Text: "Добавить активность", Action: ActionActivityLog}, {Text: "Профиль", Action: ActionProfile}},
	}), nil
}

// reject turns validation failures into a re-prompt without touching the session.
func (c *Controller) reject(sess *Session, err error) (*Reply, error) {
	if typed, ok := apperr.As(err); ok && typed.Kind == apperr.KindValidation {
		return reply(sess, typed.Message, nil), nil
	}
	return nil, err
}

func (c *Controller) save(ctx context.Context, sess *Session, text string, buttons [][]Button) (*Reply, error) {
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, apperr.Storage("save session", err)
	}
	return reply(sess, text, buttons), nil
}

func reply(sess *Session, text string, buttons [][]Button) *Reply {
	return &Reply{Text: text, Buttons: buttons, Step: sess.Step}
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Здравствуйте, выберите действие!"
	}
	return "Здравствуй, " + name + ", выберите действие!"
}

func mainMenu() [][]Button {
	return [][]Button{
		{{Text: "Вода", Action: ActionWaterLog}, {Text: "Еда", Action: ActionFoodLog}},
		{{Text: "Активность", Action: ActionActivityLog}, {Text: "Заполнение профиля", Action: ActionSetProfile}},
		{{Text: "Профиль", Action: ActionProfile}},
	}
}

// ActivityButtons — типы активностей на кнопках выбора
var ActivityButtons = []Button{
	{Text: "Бег", Action: ActivityActionPrefix + "бег"},
	{Text: "Ходьба", Action: ActivityActionPrefix + "ходьба"},
	{Text: "Плавание", Action: ActivityActionPrefix + "плавание"},
	{Text: "Тренировка", Action: ActivityActionPrefix + "силовая тренировка"},
	{Text: "Велосипед", Action: ActivityActionPrefix + "велосипед"},
	{Text: "Йога", Action: ActivityActionPrefix + "йога"},
	{Text: "Футбол", Action: ActivityActionPrefix + "футбол"},
	{Text: "Теннис", Action: ActivityActionPrefix + "теннис"},
}

func activityMenu() [][]Button {
	rows := make([][]Button, 0, len(ActivityButtons)/2+1)
	for i := 0; i < len(ActivityButtons); i += 2 {
		end := min(i+2, len(ActivityButtons))
		rows = append(rows, append([]Button(nil), ActivityButtons[i:end]...))
	}
	return append(rows, []Button{{Text: "Другая активность", Action: ActionActivityCustom}})
}
