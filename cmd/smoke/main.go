package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase string
	token   string
	userID  string
	client  = &http.Client{Timeout: 30 * time.Second}
)

func main() {
	fmt.Println("=== ActiveLife E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")
	userID = getEnv("SMOKE_USER_ID", fmt.Sprintf("smoke-%d", time.Now().Unix()))

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("User ID: %s\n", userID)
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Register Profile", testRegisterProfile},
		{"Log Water", testLogWater},
		{"Log Food (manual rate)", testLogFood},
		{"Log Activity", testLogActivity},
		{"Get Today", testGetToday},
		{"Activity Stats", testActivityStats},
		{"Conversation Start", testConversationStart},
		{"Daily Report (CSV)", testDailyReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	_, err := call(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
	return err
}

func testRegisterProfile() error {
	var view struct {
		Record struct {
			WaterGoal   *int     `json:"water_goal"`
			CalorieGoal *float64 `json:"calorie_goal"`
		} `json:"record"`
	}
	_, err := call(http.MethodPost, "/v1/profile", map[string]any{
		"user_id": userID,
		"name":    "Smoke",
		"weight":  70,
		"height":  175,
		"age":     30,
		"city":    "Москва",
	}, http.StatusOK, &view)
	if err != nil {
		return err
	}
	if view.Record.WaterGoal == nil || *view.Record.WaterGoal != 2100 {
		return fmt.Errorf("unexpected water goal: %v", view.Record.WaterGoal)
	}
	return nil
}

func testLogWater() error {
	_, err := call(http.MethodPost, "/v1/water", map[string]any{
		"user_id":   userID,
		"amount_ml": 250,
	}, http.StatusOK, nil)
	return err
}

// ручная калорийность: смоук не зависит от внешнего поиска продуктов
func testLogFood() error {
	var result struct {
		TotalCalories float64 `json:"total_calories"`
	}
	_, err := call(http.MethodPost, "/v1/food", map[string]any{
		"user_id":           userID,
		"food_name":         "гречка",
		"grams":             200,
		"calories_per_100g": 110,
	}, http.StatusCreated, &result)
	if err != nil {
		return err
	}
	if result.TotalCalories != 220 {
		return fmt.Errorf("total_calories=%v, want 220", result.TotalCalories)
	}
	return nil
}

func testLogActivity() error {
	var result struct {
		CaloriesBurned int `json:"calories_burned"`
	}
	_, err := call(http.MethodPost, "/v1/activities", map[string]any{
		"user_id":          userID,
		"activity_type":    "бег",
		"duration_minutes": 30,
	}, http.StatusCreated, &result)
	if err != nil {
		return err
	}
	if result.CaloriesBurned != 300 {
		return fmt.Errorf("calories_burned=%d, want 300", result.CaloriesBurned)
	}
	return nil
}

func testGetToday() error {
	var resp struct {
		Record struct {
			LoggedWater int     `json:"logged_water"`
			NetCalories float64 `json:"net_calories"`
		} `json:"record"`
	}
	_, err := call(http.MethodGet, "/v1/records/today?user_id="+url.QueryEscape(userID), nil, http.StatusOK, &resp)
	if err != nil {
		return err
	}
	if resp.Record.LoggedWater < 250 {
		return fmt.Errorf("logged_water=%d, want >= 250", resp.Record.LoggedWater)
	}
	return nil
}

func testActivityStats() error {
	var stats struct {
		TotalActivities int `json:"total_activities"`
	}
	_, err := call(http.MethodGet, "/v1/activities/stats?days=7&user_id="+url.QueryEscape(userID), nil, http.StatusOK, &stats)
	if err != nil {
		return err
	}
	if stats.TotalActivities < 1 {
		return fmt.Errorf("no activities in stats")
	}
	return nil
}

func testConversationStart() error {
	var reply struct {
		Text string `json:"text"`
	}
	_, err := call(http.MethodPost, "/v1/conversation/messages", map[string]any{
		"user_id": userID,
		"text":    "/start",
	}, http.StatusOK, &reply)
	if err != nil {
		return err
	}
	if reply.Text == "" {
		return fmt.Errorf("empty reply")
	}
	return nil
}

func testDailyReport() error {
	body, err := call(http.MethodGet, "/v1/reports/daily?format=csv&days=7&user_id="+url.QueryEscape(userID), nil, http.StatusOK, nil)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(string(body), "date,") {
		return fmt.Errorf("unexpected csv header: %.40q", body)
	}
	return nil
}

// Helper functions

// call sends a JSON request and decodes the response into out when set.
func call(method, path string, payload any, wantStatus int, out any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("status=%d body=%.4096s", resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("decode failed: %w", err)
		}
	}
	return body, nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
