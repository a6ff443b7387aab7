package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/blob"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/storage"
	"github.com/fdg312/activelife/internal/storage/memory"
	"github.com/fdg312/activelife/internal/userctx"
)

// fakeBlob — Store в памяти
type fakeBlob struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBlob) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	if b.putErr != nil {
		return 0, b.putErr
	}
	b.objects[key] = data
	b.types[key] = contentType
	return int64(len(data)), nil
}

func (b *fakeBlob) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://blob.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// setupTestService: два дня записей для u1, активность в каждом
func setupTestService(t *testing.T, blobStore *fakeBlob) *Service {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)}
	ledgerSvc := ledger.NewService(memory.New(), time.UTC, zap.NewNop())
	ledgerSvc.SetClock(c.Now)

	ctx := context.Background()
	logActivity := func(kind string, minutes, kcal int) ledger.EventFunc {
		return func(ctx context.Context, tx storage.LedgerTx, date string) error {
			return tx.InsertActivityLog(ctx, &storage.ActivityLog{
				UserID: "u1", ActivityType: kind, DurationMinutes: minutes,
				CaloriesBurned: kcal, ActivityDate: date,
			})
		}
	}

	_, err := ledgerSvc.Apply(ctx, "u1", storage.Delta{Water: 500, Calories: 1200, Burned: 300}, logActivity("бег", 30, 300))
	require.NoError(t, err)

	c.now = c.now.Add(24 * time.Hour)
	_, err = ledgerSvc.Apply(ctx, "u1", storage.Delta{Water: 250, Calories: 400, Burned: 150}, logActivity("йога", 30, 150))
	require.NoError(t, err)

	var store blob.Store
	if blobStore != nil {
		store = blobStore
	}
	return NewService(ledgerSvc, store, 30, time.Minute, zap.NewNop())
}

func TestBuildAggregatesDays(t *testing.T) {
	svc := setupTestService(t, nil)

	report, err := svc.Build(context.Background(), "u1", 7)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-04", report.From)
	assert.Equal(t, "2026-03-10", report.To)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "2026-03-09", report.Rows[0].Date)
	assert.Equal(t, 1, report.Rows[0].Activities)
	assert.Equal(t, 2, report.Totals.DaysRecorded)
	assert.Equal(t, 750, report.Totals.LoggedWater)
	assert.InDelta(t, 1600, report.Totals.LoggedCalories, 0.001)
	assert.InDelta(t, 450, report.Totals.BurnedCalories, 0.001)
	assert.InDelta(t, 1150, report.Totals.NetCalories, 0.001)

	require.Len(t, report.ByType, 2)
	assert.Equal(t, "бег", report.ByType[0].ActivityType)
}

func TestBuildValidatesInput(t *testing.T) {
	svc := setupTestService(t, nil)

	_, err := svc.Build(context.Background(), " ", 7)
	assert.ErrorIs(t, err, ledger.ErrUserRequired)

	_, err = svc.Build(context.Background(), "u1", 0)
	assert.Error(t, err)
	_, err = svc.Build(context.Background(), "u1", 31)
	assert.Error(t, err)
}

func TestHandleDailyCSV(t *testing.T) {
	h := NewHandlers(setupTestService(t, nil), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/daily?user_id=u1&days=7&format=csv", nil)
	w := httptest.NewRecorder()
	h.HandleDaily(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="activelife-2026-03-10-7d.csv"`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, []string{"2026-03-10", "250", "", "400", "", "150", "250", "1", "30"}, rows[2])
}

func TestHandleDailyPDF(t *testing.T) {
	h := NewHandlers(setupTestService(t, nil), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/daily?days=3&format=pdf", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()
	h.HandleDaily(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestHandleDailyRejectsBadInput(t *testing.T) {
	h := NewHandlers(setupTestService(t, nil), zap.NewNop())

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing user", "/v1/reports/daily", http.StatusBadRequest},
		{"bad format", "/v1/reports/daily?user_id=u1&format=xlsx", http.StatusBadRequest},
		{"days not a number", "/v1/reports/daily?user_id=u1&days=week", http.StatusBadRequest},
		{"days too large", "/v1/reports/daily?user_id=u1&days=365", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleDaily(w, httptest.NewRequest(http.MethodGet, tt.query, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHandleExportUploadsAndPresigns(t *testing.T) {
	blobStore := newFakeBlob()
	h := NewHandlers(setupTestService(t, blobStore), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/reports/daily/export",
		strings.NewReader(`{"user_id":"u1","format":"csv"}`))
	w := httptest.NewRecorder()
	h.HandleExport(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp ExportResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "reports/u1/2026-03-10-7d.csv", resp.Key)
	assert.Equal(t, DefaultDays, resp.Days)
	assert.Equal(t, int64(60), resp.ExpiresIn)
	assert.Contains(t, resp.URL, resp.Key)

	stored, ok := blobStore.objects[resp.Key]
	require.True(t, ok)
	assert.Equal(t, resp.SizeBytes, int64(len(stored)))
	assert.Equal(t, "text/csv; charset=utf-8", blobStore.types[resp.Key])
}

func TestHandleExportLocalModeUnavailable(t *testing.T) {
	h := NewHandlers(setupTestService(t, nil), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/reports/daily/export", strings.NewReader(`{"user_id":"u1"}`))
	w := httptest.NewRecorder()
	h.HandleExport(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "export_unavailable")
}

func TestExportUploadFailureIsStorageError(t *testing.T) {
	blobStore := newFakeBlob()
	blobStore.putErr = errors.New("bucket gone")
	svc := setupTestService(t, blobStore)

	_, err := svc.Export(context.Background(), "u1", FormatPDF, 7)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindStorage))
	assert.Contains(t, err.Error(), "upload report")
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "beg", Transliterate("бег"))
	assert.Equal(t, "Plavanie", Transliterate("Плавание"))
	assert.Equal(t, "Shchuka 2", Transliterate("Щука 2"))
	assert.Equal(t, "yoga", Transliterate("yoga"))
}

func TestObjectKeyEscapesUser(t *testing.T) {
	assert.Equal(t, "reports/a%2Fb/2026-03-10-7d.pdf", ObjectKey("a/b", "2026-03-10", 7, FormatPDF))
}
