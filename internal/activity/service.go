package activity

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/ledger"
	"github.com/fdg312/activelife/internal/storage"
)

const (
	MinDuration = 1
	MaxDuration = 600

	MinStatsDays     = 1
	MaxStatsDays     = 365
	DefaultStatsDays = 7
)

var (
	ErrInvalidDuration = apperr.Validation("invalid_duration", "duration must be between 1 and 600 minutes")
	ErrInvalidType     = apperr.Validation("invalid_activity_type", "activity type must be at least 2 characters")
	ErrInvalidDays     = apperr.Validation("invalid_days", "days must be between 1 and 365")
)

type Service struct {
	ledger *ledger.Service
	logger *zap.Logger
}

func NewService(ledgerService *ledger.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledgerService, logger: logger}
}

// LogActivity appends the event and adds its calories to today's burned
// total in one transaction.
func (s *Service) LogActivity(ctx context.Context, userID, activityType string, durationMinutes int) (*LogResult, error) {
	activityType = strings.TrimSpace(activityType)
	if utf8.RuneCountInString(activityType) < 2 {
		return nil, ErrInvalidType
	}
	if durationMinutes < MinDuration || durationMinutes > MaxDuration {
		return nil, ErrInvalidDuration
	}

	rate, matched, _ := LookupRate(activityType)
	calories := CaloriesBurned(rate, durationMinutes)

	rec, err := s.ledger.Apply(ctx, userID, storage.Delta{Burned: float64(calories)},
		func(ctx context.Context, tx storage.LedgerTx, date string) error {
			return tx.InsertActivityLog(ctx, &storage.ActivityLog{
				UserID:          strings.TrimSpace(userID),
				ActivityType:    activityType,
				DurationMinutes: durationMinutes,
				CaloriesBurned:  calories,
				ActivityDate:    date,
			})
		})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("activity logged",
		zap.String("user_id", rec.UserID),
		zap.String("activity_type", activityType),
		zap.String("matched", matched),
		zap.Int("calories", calories),
	)

	return &LogResult{
		CaloriesBurned:  calories,
		ActivityType:    activityType,
		DurationMinutes: durationMinutes,
		MatchedType:     matched,
		Record:          ledger.ToDTO(rec),
	}, nil
}

// TodayActivities returns today's events, newest first.
func (s *Service) TodayActivities(ctx context.Context, userID string) ([]EventDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrUserRequired
	}

	logs, err := s.ledger.Store().ListActivityLogs(ctx, userID, s.ledger.Today())
	if err != nil {
		return nil, apperr.Storage("list activities", err)
	}

	events := make([]EventDTO, 0, len(logs))
	for _, l := range logs {
		events = append(events, EventDTO{
			ID:              l.ID.String(),
			ActivityType:    l.ActivityType,
			DurationMinutes: l.DurationMinutes,
			CaloriesBurned:  l.CaloriesBurned,
			ActivityDate:    l.ActivityDate,
			CreatedAt:       l.CreatedAt,
		})
	}
	return events, nil
}

// Statistics aggregates the trailing days inclusive of today.
func (s *Service) Statistics(ctx context.Context, userID string, days int) (*StatsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrUserRequired
	}
	if days < MinStatsDays || days > MaxStatsDays {
		return nil, ErrInvalidDays
	}

	from, to := s.ledger.Window(days)
	stats, err := s.ledger.Store().GetActivityStats(ctx, userID, from, to)
	if err != nil {
		return nil, apperr.Storage("activity statistics", err)
	}

	resp := &StatsResponse{
		Days:                days,
		From:                from,
		To:                  to,
		TotalActivities:     stats.TotalActivities,
		TotalMinutes:        stats.TotalMinutes,
		TotalCaloriesBurned: stats.TotalCaloriesBurned,
		ByType:              make([]TypeStats, 0, len(stats.ByType)),
	}
	for _, ts := range stats.ByType {
		resp.ByType = append(resp.ByType, TypeStats(ts))
	}
	return resp, nil
}
