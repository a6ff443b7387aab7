package reports

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/blob"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/storage"
)

// Service handles reports business logic
type Service struct {
	ledger     *ledger.Service
	blobStore  blob.Store
	maxDays    int
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewService creates a new reports service. A nil blobStore means local
// mode: reports are rendered on request, export is unavailable.
func NewService(ledgerService *ledger.Service, blobStore blob.Store, maxDays int, presignTTL time.Duration, logger *zap.Logger) *Service {
	if maxDays <= 0 {
		maxDays = 90
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:     ledgerService,
		blobStore:  blobStore,
		maxDays:    maxDays,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

func (s *Service) MaxDays() int {
	return s.maxDays
}

func (s *Service) errInvalidDays() error {
	return apperr.Validation("invalid_days", fmt.Sprintf("days must be between 1 and %d", s.maxDays))
}

// Build collects the trailing days of records and activity totals.
func (s *Service) Build(ctx context.Context, userID string, days int) (*Report, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrUserRequired
	}
	if days < 1 || days > s.maxDays {
		return nil, s.errInvalidDays()
	}

	records, err := s.ledger.History(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	from, to := s.ledger.Window(days)
	store := s.ledger.Store()

	report := &Report{
		UserID: userID,
		Days:   days,
		From:   from,
		To:     to,
		Rows:   make([]Row, 0, len(records)),
		ByType: []TypeTotal{},
	}

	daily, err := store.GetDailyActivityTotals(ctx, userID, from, to)
	if err != nil {
		return nil, apperr.Storage("daily activity totals", err)
	}
	activityByDate := make(map[string]storage.DailyActivityTotals, len(daily))
	for _, d := range daily {
		activityByDate[d.Date] = d
	}

	for _, rec := range records {
		act := activityByDate[rec.RecordDate]
		row := Row{
			Date:            rec.RecordDate,
			LoggedWater:     rec.LoggedWater,
			WaterGoal:       rec.WaterGoal,
			LoggedCalories:  rec.LoggedCalories,
			CalorieGoal:     rec.CalorieGoal,
			BurnedCalories:  rec.BurnedCalories,
			NetCalories:     rec.NetCalories,
			Activities:      act.Activities,
			ActivityMinutes: act.Minutes,
		}
		report.Rows = append(report.Rows, row)

		t := &report.Totals
		t.LoggedWater += row.LoggedWater
		t.LoggedCalories += row.LoggedCalories
		t.BurnedCalories += row.BurnedCalories
		t.NetCalories += row.NetCalories
		t.Activities += row.Activities
		t.ActivityMinutes += row.ActivityMinutes
		t.DaysRecorded++
	}

	period, err := store.GetActivityStats(ctx, userID, from, to)
	if err != nil {
		return nil, apperr.Storage("activity statistics", err)
	}
	for _, ts := range period.ByType {
		report.ByType = append(report.ByType, TypeTotal(ts))
	}

	return report, nil
}

// Render builds the report and encodes it; returns data and content type.
func (s *Service) Render(ctx context.Context, userID, format string, days int) ([]byte, string, *Report, error) {
	format = normalizeFormat(format)
	if format != FormatCSV && format != FormatPDF {
		return nil, "", nil, ErrInvalidFormat
	}

	report, err := s.Build(ctx, userID, days)
	if err != nil {
		return nil, "", nil, err
	}

	data, err := Generate(report, format)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to generate report: %w", err)
	}
	return data, contentType(format), report, nil
}

// Export uploads the rendered report to reports/<user>/<date>-<n>d.<ext>
// and returns a presigned download URL.
func (s *Service) Export(ctx context.Context, userID, format string, days int) (*ExportResponse, error) {
	if s.blobStore == nil {
		return nil, ErrExportUnavailable
	}

	data, ct, report, err := s.Render(ctx, userID, format, days)
	if err != nil {
		return nil, err
	}
	format = normalizeFormat(format)

	key := ObjectKey(report.UserID, report.To, report.Days, format)
	size, err := s.blobStore.PutObject(ctx, key, data, ct)
	if err != nil {
		return nil, apperr.Storage("upload report", err)
	}

	link, err := s.blobStore.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return nil, apperr.Storage("presign report", err)
	}

	s.logger.Info("report exported",
		zap.String("user_id", report.UserID),
		zap.String("key", key),
		zap.Int64("size_bytes", size),
	)

	return &ExportResponse{
		Key:       key,
		URL:       link,
		Format:    format,
		Days:      report.Days,
		SizeBytes: size,
		ExpiresIn: int64(s.presignTTL.Seconds()),
	}, nil
}

// ObjectKey — reports/<user>/<date>-<n>d.<ext>
func ObjectKey(userID, date string, days int, format string) string {
	return fmt.Sprintf("reports/%s/%s-%dd.%s", url.PathEscape(userID), date, days, format)
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return FormatCSV
	}
	return format
}

func contentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}
