package activity

import (
	"context"
	"fmt"
	"math"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence"
)

// WaterIntake returns every water log keyed by date.
func (s *Store) WaterIntake(ctx context.Context) (map[string]domain.WaterIntake, error) {
	water := make(map[string]domain.WaterIntake)
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyWaterIntake, &water); err != nil {
		return nil, err
	}
	if water == nil {
		water = make(map[string]domain.WaterIntake)
	}
	return water, nil
}

// Water returns the water log of date.
func (s *Store) Water(ctx context.Context, date string) (domain.WaterIntake, error) {
	water, err := s.WaterIntake(ctx)
	if err != nil {
		return domain.WaterIntake{}, err
	}
	entry, ok := water[date]
	if !ok {
		return domain.WaterIntake{Logs: []domain.WaterLog{}}, nil
	}
	return entry, nil
}

// AddWater logs glasses on date. The daily record holds the running total and
// the water log mirrors it.
// Negative amounts undo earlier logs but never drop the total below zero.
func (s *Store) AddWater(ctx context.Context, date string, glasses float64, at time.Time) (domain.WaterIntake, error) {
	if glasses == 0 || math.IsNaN(glasses) || math.IsInf(glasses, 0) {
		return domain.WaterIntake{}, fmt.Errorf("%w: glasses %v", domain.ErrInvalidValue, glasses)
	}
	if _, err := domain.ParseDate(date, s.Location()); err != nil {
		return domain.WaterIntake{}, err
	}

	s.mu.Lock()
	var entry domain.WaterIntake
	rec, err := s.mutateRecordLocked(ctx, date, func(r *domain.DailyActivityRecord) error {
		r.WaterGlasses = math.Max(0, r.WaterGlasses+glasses)
		return nil
	})
	if err == nil {
		entry, err = s.syncWaterLocked(ctx, date, rec.WaterGlasses, glasses, at)
	}
	s.mu.Unlock()
	if err != nil {
		return domain.WaterIntake{}, err
	}

	s.publish(ctx, fieldEvents(rec, domain.FieldWater)...)
	return entry, nil
}

// syncWaterLocked sets date's water log total and appends a log of amount.
// Callers hold s.mu.
func (s *Store) syncWaterLocked(ctx context.Context, date string, total, amount float64, at time.Time) (domain.WaterIntake, error) {
	water, err := s.WaterIntake(ctx)
	if err != nil {
		return domain.WaterIntake{}, err
	}
	entry := water[date]
	entry.Glasses = total
	if amount != 0 {
		entry.Logs = append(entry.Logs, domain.WaterLog{Amount: amount, Timestamp: at})
	}
	if entry.Logs == nil {
		entry.Logs = []domain.WaterLog{}
	}
	water[date] = entry
	if err := persistence.SetJSON(ctx, s.kv, persistence.KeyWaterIntake, water); err != nil {
		return domain.WaterIntake{}, err
	}
	return entry, nil
}

// ReplaceWaterIntake overwrites every water log.
func (s *Store) ReplaceWaterIntake(ctx context.Context, water map[string]domain.WaterIntake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyWaterIntake, water)
}

// SleepData returns every sleep record keyed by date.
func (s *Store) SleepData(ctx context.Context) (map[string]domain.SleepRecord, error) {
	sleep := make(map[string]domain.SleepRecord)
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeySleepData, &sleep); err != nil {
		return nil, err
	}
	if sleep == nil {
		sleep = make(map[string]domain.SleepRecord)
	}
	return sleep, nil
}

// Sleep returns the sleep record of date.
func (s *Store) Sleep(ctx context.Context, date string) (domain.SleepRecord, bool, error) {
	sleep, err := s.SleepData(ctx)
	if err != nil {
		return domain.SleepRecord{}, false, err
	}
	rec, ok := sleep[date]
	return rec, ok, nil
}

// SetSleep stores rec under rec.Date and mirrors its duration into the daily record.
func (s *Store) SetSleep(ctx context.Context, rec domain.SleepRecord) error {
	if rec.DurationHours < 0 {
		return fmt.Errorf("%w: sleep duration must be non-negative", domain.ErrInvalidValue)
	}
	if _, err := domain.ParseDate(rec.Date, s.Location()); err != nil {
		return err
	}

	s.mu.Lock()
	sleep, err := s.SleepData(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	sleep[rec.Date] = rec
	err = persistence.SetJSON(ctx, s.kv, persistence.KeySleepData, sleep)
	var day domain.DailyActivityRecord
	if err == nil {
		day, err = s.mutateRecordLocked(ctx, rec.Date, func(r *domain.DailyActivityRecord) error {
			r.SleepHours = rec.DurationHours
			return nil
		})
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, fieldEvents(day, domain.FieldSleep)...)
	return nil
}

// syncSleepLocked sets the duration of date's sleep record, creating a bare
// record when none exists. Callers hold s.mu.
func (s *Store) syncSleepLocked(ctx context.Context, date string, hours float64) error {
	sleep, err := s.SleepData(ctx)
	if err != nil {
		return err
	}
	rec := sleep[date]
	rec.Date = date
	rec.DurationHours = hours
	sleep[date] = rec
	return persistence.SetJSON(ctx, s.kv, persistence.KeySleepData, sleep)
}

// ReplaceSleepData overwrites every sleep record.
func (s *Store) ReplaceSleepData(ctx context.Context, sleep map[string]domain.SleepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeySleepData, sleep)
}
