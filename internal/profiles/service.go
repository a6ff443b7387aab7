package profiles

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/progress"
	"github.com/fdg312/activelife/internal/storage"
)

// Допустимые диапазоны анкеты
const (
	MinWeight, MaxWeight = 1.0, 300.0
	MinHeight, MaxHeight = 1.0, 250.0
	MinAge, MaxAge       = 1, 120
	MinCityLen           = 2
	MaxCityLen           = 100
)

var (
	ErrInvalidWeight = apperr.Validation("invalid_weight", "weight must be between 1 and 300 kg")
	ErrInvalidHeight = apperr.Validation("invalid_height", "height must be between 1 and 250 cm")
	ErrInvalidAge    = apperr.Validation("invalid_age", "age must be between 1 and 120")
	ErrInvalidCity   = apperr.Validation("invalid_city", "city must be 2 to 100 characters")
	ErrInvalidGoal   = apperr.Validation("invalid_goal", "goals must not be negative")
)

// Service содержит бизнес-логику профиля
type Service struct {
	ledger *ledger.Service
	logger *zap.Logger
}

// NewService создаёт новый сервис
func NewService(ledgerService *ledger.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledgerService, logger: logger}
}

// Validate checks the registration ranges.
func Validate(req RegisterRequest) error {
	if req.Weight != nil && (*req.Weight < MinWeight || *req.Weight > MaxWeight) {
		return ErrInvalidWeight
	}
	if req.Height != nil && (*req.Height < MinHeight || *req.Height > MaxHeight) {
		return ErrInvalidHeight
	}
	if req.Age != nil && (*req.Age < MinAge || *req.Age > MaxAge) {
		return ErrInvalidAge
	}
	if city := strings.TrimSpace(req.City); city != "" {
		if n := utf8.RuneCountInString(city); n < MinCityLen || n > MaxCityLen {
			return ErrInvalidCity
		}
	}
	if req.WaterGoal < 0 || req.CalorieGoal < 0 {
		return ErrInvalidGoal
	}
	return nil
}

// BuildProfile validates the request and derives the goals left at zero.
func BuildProfile(req RegisterRequest) (storage.ProfileFields, error) {
	if err := Validate(req); err != nil {
		return storage.ProfileFields{}, err
	}

	calorieGoal, err := CalorieGoal(req.Weight, req.Height, req.Age, req.CalorieGoal)
	if err != nil {
		return storage.ProfileFields{}, err
	}
	waterGoal := WaterGoal(req.Weight, req.WaterGoal)

	fields := storage.ProfileFields{
		Weight:      req.Weight,
		Height:      req.Height,
		Age:         req.Age,
		WaterGoal:   &waterGoal,
		CalorieGoal: &calorieGoal,
	}
	if city := strings.TrimSpace(req.City); city != "" {
		fields.City = &city
	}
	return fields, nil
}

// Register stores the user and writes the profile into today's record.
// Re-registering the same day refreshes profile and goals, counters stay.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*ProfileView, error) {
	fields, err := BuildProfile(req)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	rec, err := s.ledger.WithToday(ctx, req.UserID, func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error) {
		if err := tx.UpsertUser(ctx, &storage.User{UserID: today.UserID, Name: name}); err != nil {
			return nil, err
		}
		return tx.UpdateDailyProfile(ctx, today.UserID, today.RecordDate, fields)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile registered",
		zap.String("user_id", rec.UserID),
		zap.Intp("water_goal", rec.WaterGoal),
		zap.Float64p("calorie_goal", rec.CalorieGoal),
	)
	return &ProfileView{
		UserID:   rec.UserID,
		Name:     name,
		Record:   ledger.ToDTO(rec),
		Progress: progress.Summarize(*rec),
	}, nil
}

// View returns the latest record of the user with its progress.
func (s *Service) View(ctx context.Context, userID string) (*ProfileView, error) {
	rec, err := s.ledger.GetLatest(ctx, userID)
	if err != nil {
		return nil, err
	}

	var name string
	user, err := s.ledger.Store().GetUser(ctx, rec.UserID)
	switch {
	case err == nil:
		name = user.Name
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Storage("get user", err)
	}

	return &ProfileView{
		UserID:   rec.UserID,
		Name:     name,
		Record:   ledger.ToDTO(rec),
		Progress: progress.Summarize(*rec),
	}, nil
}
