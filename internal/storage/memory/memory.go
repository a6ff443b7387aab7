package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/activelife/internal/storage"
	"github.com/google/uuid"
)

type recordKey struct {
	userID string
	date   string
}

// state — всё содержимое хранилища; транзакция работает с копией
type state struct {
	users      map[string]storage.User
	records    map[recordKey]storage.DailyRecord
	activities []storage.ActivityLog
	food       []storage.FoodEntry
}

func newState() *state {
	return &state{
		users:   make(map[string]storage.User),
		records: make(map[recordKey]storage.DailyRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[string]storage.User, len(s.users)),
		records:    make(map[recordKey]storage.DailyRecord, len(s.records)),
		activities: append([]storage.ActivityLog(nil), s.activities...),
		food:       append([]storage.FoodEntry(nil), s.food...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	return c
}

// MemoryStorage — in-memory реализация storage.Ledger
type MemoryStorage struct {
	mu  sync.RWMutex
	cur *state
	now func() time.Time
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{cur: newState(), now: time.Now}
}

// InTx сериализует транзакции под одним мьютексом и применяет копию только при успехе
func (m *MemoryStorage) InTx(ctx context.Context, fn func(tx storage.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.cur.clone()
	if err := fn(&memoryTx{st: work, now: m.now}); err != nil {
		return err
	}
	m.cur = work
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.cur.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStorage) GetLatestDailyRecord(ctx context.Context, userID string) (*storage.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return latestRecord(m.cur, userID, "")
}

func (m *MemoryStorage) ListDailyRecords(ctx context.Context, userID, from, to string) ([]storage.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.DailyRecord{}
	for k, rec := range m.cur.records {
		if k.userID == userID && k.date >= from && k.date <= to {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate < out[j].RecordDate })
	return out, nil
}

func (m *MemoryStorage) ListActivityLogs(ctx context.Context, userID, date string) ([]storage.ActivityLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.ActivityLog{}
	// новые первыми: записи добавляются в конец
	for i := len(m.cur.activities) - 1; i >= 0; i-- {
		a := m.cur.activities[i]
		if a.UserID == userID && a.ActivityDate == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStorage) GetActivityStats(ctx context.Context, userID, from, to string) (*storage.ActivityStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &storage.ActivityStats{ByType: []storage.ActivityTypeStats{}}
	byType := map[string]*storage.ActivityTypeStats{}
	for _, a := range m.cur.activities {
		if a.UserID != userID || a.ActivityDate < from || a.ActivityDate > to {
			continue
		}
		stats.TotalActivities++
		stats.TotalMinutes += a.DurationMinutes
		stats.TotalCaloriesBurned += a.CaloriesBurned

		ts, ok := byType[a.ActivityType]
		if !ok {
			ts = &storage.ActivityTypeStats{ActivityType: a.ActivityType}
			byType[a.ActivityType] = ts
		}
		ts.Count++
		ts.TotalMinutes += a.DurationMinutes
		ts.TotalCalories += a.CaloriesBurned
	}

	for _, ts := range byType {
		stats.ByType = append(stats.ByType, *ts)
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		if stats.ByType[i].TotalCalories != stats.ByType[j].TotalCalories {
			return stats.ByType[i].TotalCalories > stats.ByType[j].TotalCalories
		}
		return stats.ByType[i].ActivityType < stats.ByType[j].ActivityType
	})
	return stats, nil
}

func (m *MemoryStorage) GetDailyActivityTotals(ctx context.Context, userID, from, to string) ([]storage.DailyActivityTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := map[string]*storage.DailyActivityTotals{}
	for _, a := range m.cur.activities {
		if a.UserID != userID || a.ActivityDate < from || a.ActivityDate > to {
			continue
		}
		d, ok := byDate[a.ActivityDate]
		if !ok {
			d = &storage.DailyActivityTotals{Date: a.ActivityDate}
			byDate[a.ActivityDate] = d
		}
		d.Activities++
		d.Minutes += a.DurationMinutes
		d.CaloriesBurned += a.CaloriesBurned
	}

	out := make([]storage.DailyActivityTotals, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MemoryStorage) ListFoodEntries(ctx context.Context, userID, date string) ([]storage.FoodEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.FoodEntry{}
	for i := len(m.cur.food) - 1; i >= 0; i-- {
		f := m.cur.food[i]
		if f.UserID == userID && f.EntryDate == date {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemoryStorage) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cur = newState()
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// memoryTx — транзакция над рабочей копией состояния
type memoryTx struct {
	st  *state
	now func() time.Time
}

func (t *memoryTx) UpsertUser(ctx context.Context, user *storage.User) error {
	now := t.now()
	existing, ok := t.st.users[user.UserID]
	if ok {
		existing.Name = user.Name
		existing.UpdatedAt = now
		t.st.users[user.UserID] = existing
		*user = existing
		return nil
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	t.st.users[user.UserID] = *user
	return nil
}

func (t *memoryTx) GetDailyRecord(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	rec, ok := t.st.records[recordKey{userID, date}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (t *memoryTx) GetLatestDailyRecordBefore(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	return latestRecord(t.st, userID, date)
}

func (t *memoryTx) InsertDailyRecord(ctx context.Context, record *storage.DailyRecord) (bool, error) {
	key := recordKey{record.UserID, record.RecordDate}
	if _, exists := t.st.records[key]; exists {
		return false, nil
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := t.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	t.st.records[key] = cloneRecord(*record)
	return true, nil
}

func (t *memoryTx) UpdateDailyProfile(ctx context.Context, userID, date string, profile storage.ProfileFields) (*storage.DailyRecord, error) {
	key := recordKey{userID, date}
	rec, ok := t.st.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rec.ProfileFields = cloneProfile(profile)
	rec.UpdatedAt = t.now()
	t.st.records[key] = rec
	out := cloneRecord(rec)
	return &out, nil
}

func (t *memoryTx) AddToDailyRecord(ctx context.Context, userID, date string, delta storage.Delta) (*storage.DailyRecord, error) {
	key := recordKey{userID, date}
	rec, ok := t.st.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rec.LoggedWater += delta.Water
	rec.LoggedCalories += delta.Calories
	rec.BurnedCalories += delta.Burned
	rec.NetCalories = rec.LoggedCalories - rec.BurnedCalories
	rec.UpdatedAt = t.now()
	t.st.records[key] = rec
	out := cloneRecord(rec)
	return &out, nil
}

func (t *memoryTx) RecalculateNet(ctx context.Context, userID, date string) (*storage.DailyRecord, error) {
	return t.AddToDailyRecord(ctx, userID, date, storage.Delta{})
}

func (t *memoryTx) InsertActivityLog(ctx context.Context, log *storage.ActivityLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = t.now()
	t.st.activities = append(t.st.activities, *log)
	return nil
}

func (t *memoryTx) InsertFoodEntry(ctx context.Context, entry *storage.FoodEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = t.now()
	t.st.food = append(t.st.food, *entry)
	return nil
}

// latestRecord — последняя запись пользователя; before="" снимает ограничение по дате
func latestRecord(st *state, userID, before string) (*storage.DailyRecord, error) {
	var best *storage.DailyRecord
	for k, rec := range st.records {
		if k.userID != userID {
			continue
		}
		if before != "" && k.date >= before {
			continue
		}
		if best == nil ||
			rec.RecordDate > best.RecordDate ||
			(rec.RecordDate == best.RecordDate && rec.CreatedAt.After(best.CreatedAt)) {
			r := rec
			best = &r
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	out := cloneRecord(*best)
	return &out, nil
}

func cloneRecord(rec storage.DailyRecord) storage.DailyRecord {
	rec.ProfileFields = cloneProfile(rec.ProfileFields)
	return rec
}

func cloneProfile(p storage.ProfileFields) storage.ProfileFields {
	return storage.ProfileFields{
		Weight:      clonePtr(p.Weight),
		Height:      clonePtr(p.Height),
		Age:         clonePtr(p.Age),
		City:        clonePtr(p.City),
		WaterGoal:   clonePtr(p.WaterGoal),
		CalorieGoal: clonePtr(p.CalorieGoal),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
