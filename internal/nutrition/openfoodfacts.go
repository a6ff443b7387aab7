package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/activelife/internal/apperr"
)

const (
	DefaultBaseURL   = "https://world.openfoodfacts.net"
	DefaultUserAgent = "activelife/1.0 (+https://github.com/fdg312/activelife)"

	kJPerKcal = 4.184
)

// OpenFoodFacts — клиент текстового поиска OpenFoodFacts
type OpenFoodFacts struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func NewOpenFoodFacts(baseURL, userAgent string, timeout time.Duration) *OpenFoodFacts {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &OpenFoodFacts{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *OpenFoodFacts) CaloriesPer100g(ctx context.Context, foodName string) (float64, error) {
	p, err := c.Search(ctx, foodName)
	if err != nil {
		return 0, err
	}
	return p.CaloriesPer100g, nil
}

// Search takes the first product of a text search and extracts kcal per 100 g.
func (c *OpenFoodFacts) Search(ctx context.Context, foodName string) (*Product, error) {
	query := strings.TrimSpace(foodName)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=1",
		base,
		url.QueryEscape(query),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, lookupFailure("create openfoodfacts search request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, lookupFailure("execute openfoodfacts search request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, lookupFailure("read openfoodfacts search response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, lookupFailure("openfoodfacts search", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, lookupFailure("decode openfoodfacts search response", err)
	}
	if len(parsed.Products) == 0 {
		return nil, ErrNotFound
	}

	first := parsed.Products[0]
	kcal, ok := energyKcalPer100g(first.Nutriments)
	if !ok || kcal <= 0 {
		return nil, ErrNotFound
	}

	return &Product{
		Query:           query,
		ProductName:     strings.TrimSpace(first.ProductName),
		CaloriesPer100g: kcal,
	}, nil
}

// energyKcalPer100g prefers energy-kcal_100g, else converts energy_100g by
// energy_unit (kJ by default, J, anything else taken as kcal).
func energyKcalPer100g(n map[string]any) (float64, bool) {
	if v, ok := parseFloatAny(n["energy-kcal_100g"]); ok {
		return v, true
	}
	v, ok := parseFloatAny(n["energy_100g"])
	if !ok {
		return 0, false
	}

	unit, _ := n["energy_unit"].(string)
	switch strings.TrimSpace(unit) {
	case "", "kJ":
		return v / kJPerKcal, true
	case "J":
		return v / (kJPerKcal * 1000), true
	default:
		return v, true
	}
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func lookupFailure(op string, err error) error {
	return apperr.Lookup("lookup_failure", "nutrition provider unavailable, enter calories per 100 g manually", fmt.Errorf("%s: %w", op, err))
}

type offProduct struct {
	ProductName string         `json:"product_name"`
	Nutriments  map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
