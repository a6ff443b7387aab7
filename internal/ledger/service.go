package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fdg312/activelife/internal/apperr"
	"github.com/fdg312/activelife/internal/storage"
)

// Пределы одной записи и дневных сумм
const (
	MaxWaterDelta   = 10000 // мл за одну запись
	MaxCalorieDelta = 20000 // ккал за одну запись, съеденные или сожжённые

	// logged_water хранится в INTEGER
	MaxLoggedWater = math.MaxInt32
)

var (
	ErrInvalidAmount  = apperr.Validation("invalid_amount", "amount must be positive")
	ErrAmountTooLarge = apperr.Validation("amount_too_large", "amount exceeds the per-entry limit")
	ErrTotalOverflow  = apperr.Validation("total_out_of_range", "daily total would exceed the allowed range")
	ErrUserRequired   = apperr.Validation("user_id_required", "user_id is required")
	ErrRecordNotFound = apperr.NotFound("record_not_found", "no daily records for user")
)

// EventFunc appends a ledger event inside the transaction that applies the delta.
type EventFunc func(ctx context.Context, tx storage.LedgerTx, date string) error

// TodayFunc runs against today's record (already created or carried forward)
// inside the same transaction and returns the record to report.
type TodayFunc func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error)

// Service — дневной журнал: поиск, создание с переносом и изменение записи за сегодня
type Service struct {
	store  storage.Ledger
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewService(store storage.Ledger, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the time source (tests, backfills).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Store exposes the underlying ledger for read-only queries of sibling services.
func (s *Service) Store() storage.Ledger {
	return s.store
}

// Today returns the current calendar date in the ledger timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(storage.DateLayout)
}

// Window returns [today-(days-1), today].
func (s *Service) Window(days int) (from, to string) {
	today := s.now().In(s.loc)
	return today.AddDate(0, 0, -(days - 1)).Format(storage.DateLayout), today.Format(storage.DateLayout)
}

// GetOrCreateToday returns today's record, creating it by carry-forward
// (or the degenerate form) on the first call of the day.
func (s *Service) GetOrCreateToday(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	return s.WithToday(ctx, userID, nil)
}

func (s *Service) ApplyWaterDelta(ctx context.Context, userID string, ml int) (*storage.DailyRecord, error) {
	if ml <= 0 {
		return nil, ErrInvalidAmount
	}
	if ml > MaxWaterDelta {
		return nil, ErrAmountTooLarge
	}
	return s.Apply(ctx, userID, storage.Delta{Water: ml})
}

// ApplyCalorieDelta adds consumed calories. A non-empty sourceLabel is
// recorded in the food history in the same transaction.
func (s *Service) ApplyCalorieDelta(ctx context.Context, userID string, kcal float64, sourceLabel string) (*storage.DailyRecord, error) {
	if err := checkKcal(kcal); err != nil {
		return nil, err
	}

	var events []EventFunc
	if label := strings.TrimSpace(sourceLabel); label != "" {
		events = append(events, func(ctx context.Context, tx storage.LedgerTx, date string) error {
			return tx.InsertFoodEntry(ctx, &storage.FoodEntry{
				UserID:    userID,
				FoodName:  label,
				Calories:  kcal,
				EntryDate: date,
			})
		})
	}
	return s.Apply(ctx, userID, storage.Delta{Calories: kcal}, events...)
}

func (s *Service) ApplyBurnDelta(ctx context.Context, userID string, kcal float64) (*storage.DailyRecord, error) {
	if err := checkKcal(kcal); err != nil {
		return nil, err
	}
	return s.Apply(ctx, userID, storage.Delta{Burned: kcal})
}

func checkKcal(kcal float64) error {
	switch {
	case math.IsNaN(kcal) || math.IsInf(kcal, 0) || kcal <= 0:
		return ErrInvalidAmount
	case kcal > MaxCalorieDelta:
		return ErrAmountTooLarge
	}
	return nil
}

// checkDelta rejects negative, non-finite or oversized deltas.
func checkDelta(delta storage.Delta) error {
	if delta.Water < 0 {
		return ErrInvalidAmount
	}
	if delta.Water > MaxWaterDelta {
		return ErrAmountTooLarge
	}
	for _, v := range []float64{delta.Calories, delta.Burned} {
		if v == 0 {
			continue
		}
		if err := checkKcal(v); err != nil {
			return err
		}
	}
	return nil
}

// checkTotals: сумма за день должна оставаться в диапазоне хранения
func checkTotals(rec *storage.DailyRecord, delta storage.Delta) error {
	if rec.LoggedWater > MaxLoggedWater-delta.Water {
		return ErrTotalOverflow
	}
	calories := rec.LoggedCalories + delta.Calories
	burned := rec.BurnedCalories + delta.Burned
	for _, v := range []float64{calories, burned, calories - burned} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrTotalOverflow
		}
	}
	return nil
}

// Apply is the single mutation path: resolve today's record, append events,
// add the delta. Nothing is visible unless all of it commits.
func (s *Service) Apply(ctx context.Context, userID string, delta storage.Delta, events ...EventFunc) (*storage.DailyRecord, error) {
	if err := checkDelta(delta); err != nil {
		return nil, err
	}
	return s.WithToday(ctx, userID, func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error) {
		if err := checkTotals(today, delta); err != nil {
			return nil, err
		}
		for _, event := range events {
			if err := event(ctx, tx, today.RecordDate); err != nil {
				return nil, err
			}
		}
		return tx.AddToDailyRecord(ctx, userID, today.RecordDate, delta)
	})
}

// WithToday resolves today's record and runs fn against it in one transaction.
// A nil fn just returns the resolved record.
func (s *Service) WithToday(ctx context.Context, userID string, fn TodayFunc) (*storage.DailyRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}

	date := s.Today()
	var out *storage.DailyRecord
	err := s.store.InTx(ctx, func(tx storage.LedgerTx) error {
		today, err := s.resolveToday(ctx, tx, userID, date)
		if err != nil {
			return err
		}
		if fn == nil {
			out = today
			return nil
		}
		out, err = fn(ctx, tx, today)
		return err
	})
	if err != nil {
		return nil, wrapStorage("update daily record", err)
	}
	return out, nil
}

// resolveToday: найти запись за date, иначе перенести последнюю, иначе создать пустую
func (s *Service) resolveToday(ctx context.Context, tx storage.LedgerTx, userID, date string) (*storage.DailyRecord, error) {
	rec, err := tx.GetDailyRecord(ctx, userID, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	var fresh storage.DailyRecord
	prev, err := tx.GetLatestDailyRecordBefore(ctx, userID, date)
	switch {
	case err == nil:
		fresh = CarryForward(prev, userID, date)
	case errors.Is(err, storage.ErrNotFound):
		fresh = CarryForward(nil, userID, date)
	default:
		return nil, err
	}

	created, err := tx.InsertDailyRecord(ctx, &fresh)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Debug("daily record created",
			zap.String("user_id", userID),
			zap.String("date", date),
			zap.Bool("carried_forward", prev != nil),
		)
	}

	// перечитываем: при гонке запись могла создать соседняя транзакция
	return tx.GetDailyRecord(ctx, userID, date)
}

// GetLatest returns the most recent record regardless of date.
func (s *Service) GetLatest(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}

	rec, err := s.store.GetLatestDailyRecord(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, apperr.Storage("get latest record", err)
	}
	return rec, nil
}

// RecalculateNet re-derives net_calories of today's record.
func (s *Service) RecalculateNet(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	return s.WithToday(ctx, userID, func(ctx context.Context, tx storage.LedgerTx, today *storage.DailyRecord) (*storage.DailyRecord, error) {
		return tx.RecalculateNet(ctx, userID, today.RecordDate)
	})
}

// History returns the records of the trailing days, oldest first.
func (s *Service) History(ctx context.Context, userID string, days int) ([]storage.DailyRecord, error) {
	from, to := s.Window(days)
	records, err := s.store.ListDailyRecords(ctx, userID, from, to)
	if err != nil {
		return nil, apperr.Storage("list daily records", err)
	}
	return records, nil
}

// ClearAll wipes every record, event and user.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return apperr.Storage("clear all", err)
	}
	s.logger.Warn("ledger cleared")
	return nil
}

// wrapStorage keeps typed failures and marks everything else as a storage failure.
func wrapStorage(op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Storage(op, err)
}
