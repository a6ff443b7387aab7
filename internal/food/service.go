package food

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/nutrition"
	"github.com/fdg312/activelife/internal/storage"
)

const (
	MaxGrams = 10000
	// чистый жир ~900 ккал/100г
	MaxCaloriesPer100g = 1000
)

var (
	ErrInvalidName  = apperr.Validation("invalid_food_name", "food name must be at least 2 characters")
	ErrInvalidGrams = apperr.Validation("invalid_grams", "grams must be between 0 and 10000")
	ErrInvalidRate  = apperr.Validation("invalid_calories_per_100g", "calories per 100 g must be between 0 and 1000")
	ErrInvalidTotal = apperr.Validation("invalid_total_calories", "total calories of the entry are out of range")
)

// ValidGrams reports whether grams is a finite amount in (0, MaxGrams].
func ValidGrams(grams float64) bool {
	return finite(grams) && grams > 0 && grams <= MaxGrams
}

// ValidRate reports whether a calories-per-100g value is in (0, MaxCaloriesPer100g].
func ValidRate(kcal float64) bool {
	return finite(kcal) && kcal > 0 && kcal <= MaxCaloriesPer100g
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Service struct {
	ledger *ledger.Service
	lookup nutrition.Lookup
	logger *zap.Logger
}

func NewService(ledgerService *ledger.Service, lookup nutrition.Lookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledgerService, lookup: lookup, logger: logger}
}

// ResolveCaloriesPer100g asks the nutrition lookup. The caller keeps the
// result for further entries of the same food.
func (s *Service) ResolveCaloriesPer100g(ctx context.Context, foodName string) (float64, error) {
	name, err := normalizeName(foodName)
	if err != nil {
		return 0, err
	}
	if s.lookup == nil {
		return 0, nutrition.ErrNotFound
	}

	kcal, err := s.lookup.CaloriesPer100g(ctx, name)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return 0, err
		}
		return 0, apperr.Lookup("lookup_failure", "nutrition provider unavailable, enter calories per 100 g manually", err)
	}
	// нет данных или явно ошибочные данные: просим ввести вручную
	if !ValidRate(kcal) {
		return 0, nutrition.ErrNotFound
	}
	return kcal, nil
}

// LogFood appends the food entry and adds its calories to today's record atomically.
func (s *Service) LogFood(ctx context.Context, userID, foodName string, grams, caloriesPer100g float64) (*LogResult, error) {
	name, err := normalizeName(foodName)
	if err != nil {
		return nil, err
	}
	if !ValidGrams(grams) {
		return nil, ErrInvalidGrams
	}
	if !ValidRate(caloriesPer100g) {
		return nil, ErrInvalidRate
	}

	total := caloriesPer100g / 100 * grams
	if !finite(total) || total <= 0 || total > ledger.MaxCalorieDelta {
		return nil, ErrInvalidTotal
	}
	rec, err := s.ledger.Apply(ctx, userID, storage.Delta{Calories: total},
		func(ctx context.Context, tx storage.LedgerTx, date string) error {
			return tx.InsertFoodEntry(ctx, &storage.FoodEntry{
				UserID:          strings.TrimSpace(userID),
				FoodName:        name,
				CaloriesPer100g: caloriesPer100g,
				Grams:           grams,
				Calories:        total,
				EntryDate:       date,
			})
		})
	if err != nil {
		return nil, err
	}

	return &LogResult{
		FoodName:        name,
		Grams:           grams,
		CaloriesPer100g: caloriesPer100g,
		TotalCalories:   total,
		Record:          ledger.ToDTO(rec),
	}, nil
}

// TodayFood returns today's food history, newest first.
func (s *Service) TodayFood(ctx context.Context, userID string) (*EntriesResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrUserRequired
	}

	entries, err := s.ledger.Store().ListFoodEntries(ctx, userID, s.ledger.Today())
	if err != nil {
		return nil, apperr.Storage("list food entries", err)
	}

	resp := &EntriesResponse{Entries: make([]EntryDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryDTO{
			ID:              e.ID.String(),
			FoodName:        e.FoodName,
			CaloriesPer100g: e.CaloriesPer100g,
			Grams:           e.Grams,
			Calories:        e.Calories,
			EntryDate:       e.EntryDate,
			CreatedAt:       e.CreatedAt,
		})
		resp.TotalCalories += e.Calories
	}
	return resp, nil
}

func normalizeName(foodName string) (string, error) {
	name := strings.TrimSpace(foodName)
	if utf8.RuneCountInString(name) < 2 {
		return "", ErrInvalidName
	}
	return name, nil
}
