// Package activity is the typed repository for everything the tracker persists:
// daily records, workout history, goals, settings, profile, achievements,
// streak state, water and sleep logs.
package activity

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/persistence"
)

// Option configures optional behaviour for the Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithPublisher sets the sink notified after every successful mutation.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithLogger overrides the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store serialises read-modify-write cycles over the key-value backend.
type Store struct {
	kv        persistence.Store
	now       func() time.Time
	publisher events.Publisher
	logger    *log.Logger
	mu        sync.Mutex
}

// NewStore constructs a Store over kv.
func NewStore(kv persistence.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		now:    time.Now,
		logger: log.New(log.Writer(), "[activity] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Location returns the time zone calendar dates are computed in.
func (s *Store) Location() *time.Location {
	return s.now().Location()
}

// Today returns the current calendar date.
func (s *Store) Today() string {
	return domain.DateOf(s.now())
}

// Seed persists default profile, goals and settings when absent.
func (s *Store) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeds := []struct {
		key   string
		value any
	}{
		{persistence.KeyProfile, domain.DefaultProfile(s.now())},
		{persistence.KeyGoals, domain.DefaultGoals()},
		{persistence.KeySettings, domain.DefaultSettings()},
	}
	for _, seed := range seeds {
		_, found, err := s.kv.Get(ctx, seed.key)
		if err != nil {
			return fmt.Errorf("seed %s: %w", seed.key, err)
		}
		if found {
			continue
		}
		if err := persistence.SetJSON(ctx, s.kv, seed.key, seed.value); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes every persisted key and reseeds the defaults.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	for _, key := range persistence.AllKeys {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	s.mu.Unlock()
	s.logger.Printf("store reset")
	return s.Seed(ctx)
}

// Record returns the record for date, zero-valued when nothing was logged.
func (s *Store) Record(ctx context.Context, date string) (domain.DailyActivityRecord, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return domain.DailyActivityRecord{}, err
	}
	if rec, ok := records[date]; ok {
		return rec, nil
	}
	return domain.NewDailyActivityRecord(date), nil
}

// Records returns every materialised daily record keyed by date.
func (s *Store) Records(ctx context.Context) (map[string]domain.DailyActivityRecord, error) {
	records := make(map[string]domain.DailyActivityRecord)
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyDailyActivities, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = make(map[string]domain.DailyActivityRecord)
	}
	return records, nil
}

// RecordsBetween returns one record per date from start through end inclusive.
func (s *Store) RecordsBetween(ctx context.Context, start, end string) ([]domain.DailyActivityRecord, error) {
	if _, err := domain.ParseDate(start, s.Location()); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDate(end, s.Location()); err != nil {
		return nil, err
	}
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyActivityRecord, 0, 31)
	for date := start; date <= end; date = domain.AddDays(date, 1) {
		rec, ok := records[date]
		if !ok {
			rec = domain.NewDailyActivityRecord(date)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Increment adds delta to a field of date's record. A result below zero is clamped to zero.
func (s *Store) Increment(ctx context.Context, date string, field domain.Field, delta float64) (domain.DailyActivityRecord, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return domain.DailyActivityRecord{}, fmt.Errorf("%w: delta %v", domain.ErrInvalidValue, delta)
	}
	return s.writeField(ctx, date, field, func(current float64) float64 {
		return math.Max(0, current+delta)
	})
}

// SetAbsolute overwrites a field of date's record. Negative values are rejected.
func (s *Store) SetAbsolute(ctx context.Context, date string, field domain.Field, value float64) (domain.DailyActivityRecord, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.DailyActivityRecord{}, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidValue, field)
	}
	return s.writeField(ctx, date, field, func(float64) float64 {
		return value
	})
}

func (s *Store) writeField(ctx context.Context, date string, field domain.Field, next func(float64) float64) (domain.DailyActivityRecord, error) {
	if _, err := domain.ParseField(string(field)); err != nil {
		return domain.DailyActivityRecord{}, err
	}
	if _, err := domain.ParseDate(date, s.Location()); err != nil {
		return domain.DailyActivityRecord{}, err
	}

	s.mu.Lock()
	var before float64
	rec, err := s.mutateRecordLocked(ctx, date, func(r *domain.DailyActivityRecord) error {
		before = r.Value(field)
		return r.SetValue(field, next(before))
	})
	if err == nil {
		// Water and sleep keep a detailed log alongside the record.
		switch field {
		case domain.FieldWater:
			_, err = s.syncWaterLocked(ctx, date, rec.WaterGlasses, rec.WaterGlasses-before, rec.LastUpdated)
		case domain.FieldSleep:
			err = s.syncSleepLocked(ctx, date, rec.SleepHours)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return domain.DailyActivityRecord{}, err
	}

	s.publish(ctx, fieldEvents(rec, field)...)
	return rec, nil
}

// mutateRecordLocked applies fn to date's record and persists it. Callers hold s.mu.
func (s *Store) mutateRecordLocked(ctx context.Context, date string, fn func(*domain.DailyActivityRecord) error) (domain.DailyActivityRecord, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return domain.DailyActivityRecord{}, err
	}
	rec, ok := records[date]
	if !ok {
		rec = domain.NewDailyActivityRecord(date)
	}
	if err := fn(&rec); err != nil {
		return domain.DailyActivityRecord{}, err
	}
	rec.LastUpdated = s.now()
	records[date] = rec
	if err := persistence.SetJSON(ctx, s.kv, persistence.KeyDailyActivities, records); err != nil {
		return domain.DailyActivityRecord{}, err
	}
	return rec, nil
}

// ReplaceRecords overwrites the whole daily record map.
func (s *Store) ReplaceRecords(ctx context.Context, records map[string]domain.DailyActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyDailyActivities, records)
}

func fieldEvents(rec domain.DailyActivityRecord, field domain.Field) []events.Event {
	out := []events.Event{events.ActivityRecorded{
		Date:       rec.Date,
		Field:      field,
		Value:      rec.Value(field),
		RecordedAt: rec.LastUpdated,
	}}
	switch field {
	case domain.FieldSteps:
		out = append(out, events.StepCountChanged{Date: rec.Date, Total: rec.Steps})
	case domain.FieldWater:
		out = append(out, events.HealthLogged{Date: rec.Date, Metric: events.MetricWater, Value: rec.WaterGlasses})
	case domain.FieldSleep:
		out = append(out, events.HealthLogged{Date: rec.Date, Metric: events.MetricSleep, Value: rec.SleepHours})
	}
	return out
}

// publish must be called without s.mu held: handlers read back through the store.
func (s *Store) publish(ctx context.Context, evts ...events.Event) {
	if s.publisher == nil {
		return
	}
	for _, e := range evts {
		s.publisher.Publish(ctx, e)
	}
}
