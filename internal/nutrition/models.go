package nutrition

import (
	"context"

	"github.com/fdg312/activelife/internal/apperr"
)

var (
	// ErrNotFound: the provider has no product or no energy data for the name.
	ErrNotFound   = apperr.Lookup("food_not_found", "no calorie data found for this food", nil)
	ErrEmptyQuery = apperr.Validation("invalid_food_name", "food name must be at least 2 characters")
)

// Lookup resolves the energy density of a food by name.
type Lookup interface {
	CaloriesPer100g(ctx context.Context, foodName string) (float64, error)
}

// Product — первый найденный продукт с энергетической ценностью
type Product struct {
	Query           string  `json:"query"`
	ProductName     string  `json:"product_name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
}

// Searcher returns the matched product itself, not only its calories.
type Searcher interface {
	Search(ctx context.Context, foodName string) (*Product, error)
}
