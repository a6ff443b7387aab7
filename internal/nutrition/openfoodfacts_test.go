package nutrition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOFFServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("json"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchPrefersKcal(t *testing.T) {
	srv := newOFFServer(t, http.StatusOK, `{"products":[
		{"product_name":"Pizza Margherita","nutriments":{"energy-kcal_100g":266,"energy_100g":1113}},
		{"product_name":"Other","nutriments":{"energy-kcal_100g":999}}
	]}`)
	client := NewOpenFoodFacts(srv.URL, "", time.Second)

	p, err := client.Search(context.Background(), "pizza")
	require.NoError(t, err)
	assert.Equal(t, "Pizza Margherita", p.ProductName)
	assert.Equal(t, 266.0, p.CaloriesPer100g)
}

func TestEnergyUnitConversion(t *testing.T) {
	tests := []struct {
		name       string
		nutriments map[string]any
		want       float64
	}{
		{"kJ explicit", map[string]any{"energy_100g": 418.4, "energy_unit": "kJ"}, 100},
		{"kJ default", map[string]any{"energy_100g": 836.8}, 200},
		{"joules", map[string]any{"energy_100g": 418400.0, "energy_unit": "J"}, 100},
		{"kcal unit passes through", map[string]any{"energy_100g": 150.0, "energy_unit": "kcal"}, 150},
		{"string value", map[string]any{"energy-kcal_100g": "52.5"}, 52.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := energyKcalPer100g(tt.nutriments)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, ok := energyKcalPer100g(map[string]any{"proteins_100g": 3})
	assert.False(t, ok)
}

func TestSearchNotFound(t *testing.T) {
	for name, body := range map[string]string{
		"no products":   `{"products":[]}`,
		"no energy":     `{"products":[{"product_name":"Water","nutriments":{}}]}`,
		"zero calories": `{"products":[{"product_name":"Water","nutriments":{"energy-kcal_100g":0}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := NewOpenFoodFacts(newOFFServer(t, http.StatusOK, body).URL, "", time.Second)
			_, err := client.CaloriesPer100g(context.Background(), "вода")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.True(t, apperr.IsKind(err, apperr.KindLookup))
		})
	}
}

func TestSearchProviderFailure(t *testing.T) {
	client := NewOpenFoodFacts(newOFFServer(t, http.StatusServiceUnavailable, `busy`).URL, "", time.Second)

	_, err := client.Search(context.Background(), "pizza")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindLookup))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSearchEmptyQuery(t *testing.T) {
	client := NewOpenFoodFacts("http://127.0.0.1:0", "", time.Second)
	_, err := client.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
