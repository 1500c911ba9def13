package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"example.com/fittrack/internal/domain"
)

const (
	defaultCaloriesPerStep = 0.04
	defaultKmPerStep       = 0.0008
)

// CaloriesPerStep estimates kcal per step from body weight.
func CaloriesPerStep(p domain.UserProfile) float64 {
	if p.WeightKg <= 0 {
		return defaultCaloriesPerStep
	}
	return p.WeightKg * 0.0005
}

// KmPerStep estimates stride length as 40% of height.
func KmPerStep(p domain.UserProfile) float64 {
	if p.HeightCm <= 0 {
		return defaultKmPerStep
	}
	return p.HeightCm * 0.4 / 100 / 1000
}

// StepLog is the outcome of logging steps.
type StepLog struct {
	Steps    int                        `json:"steps"`
	Calories float64                    `json:"calories"`
	Distance float64                    `json:"distance"`
	Record   domain.DailyActivityRecord `json:"record"`
}

// AddSteps credits measured steps to date after applying the calibration
// factor, along with the calories and distance they imply. An empty date
// selects today.
func (s *Service) AddSteps(ctx context.Context, date string, measured int) (StepLog, error) {
	if measured <= 0 {
		return StepLog{}, fmt.Errorf("%w: step count must be positive", domain.ErrInvalidValue)
	}
	if date == "" {
		date = s.store.Today()
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return StepLog{}, err
	}
	profile, err := s.store.Profile(ctx)
	if err != nil {
		return StepLog{}, err
	}
	factor := settings.StepCalibration
	if factor <= 0 {
		factor = 1
	}
	steps := int(math.Round(float64(measured) * factor))
	out := StepLog{
		Steps:    steps,
		Calories: float64(steps) * CaloriesPerStep(profile),
		Distance: float64(steps) * KmPerStep(profile),
	}

	// Calories and distance go first so the step trigger sees a complete record.
	if _, err := s.store.Increment(ctx, date, domain.FieldCalories, out.Calories); err != nil {
		return StepLog{}, err
	}
	if _, err := s.store.Increment(ctx, date, domain.FieldDistance, out.Distance); err != nil {
		return StepLog{}, err
	}
	if out.Record, err = s.store.Increment(ctx, date, domain.FieldSteps, float64(steps)); err != nil {
		return StepLog{}, err
	}
	return out, nil
}

// Calibrate stores actual/measured as the step calibration factor.
func (s *Service) Calibrate(ctx context.Context, actual, measured int) (float64, error) {
	if measured <= 0 || actual <= 0 {
		return 0, fmt.Errorf("%w: calibration needs positive step counts", domain.ErrInvalidValue)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return 0, err
	}
	settings.StepCalibration = float64(actual) / float64(measured)
	if err := s.store.SetSettings(ctx, settings); err != nil {
		return 0, err
	}
	return settings.StepCalibration, nil
}

// Write modes for RecordActivity.
const (
	ModeIncrement = "increment"
	ModeSet       = "set"
)

// RecordActivity writes one field of date's record, either adding to it or
// replacing it. An empty date selects today.
func (s *Service) RecordActivity(ctx context.Context, date string, field domain.Field, value float64, mode string) (domain.DailyActivityRecord, error) {
	if date == "" {
		date = s.store.Today()
	}
	switch mode {
	case ModeIncrement, "":
		return s.store.Increment(ctx, date, field, value)
	case ModeSet:
		return s.store.SetAbsolute(ctx, date, field, value)
	default:
		return domain.DailyActivityRecord{}, fmt.Errorf("%w: mode %q", domain.ErrInvalidValue, mode)
	}
}

// LogWater adds glasses to date's intake. An empty date selects today.
func (s *Service) LogWater(ctx context.Context, date string, glasses float64) (domain.WaterIntake, error) {
	if date == "" {
		date = s.store.Today()
	}
	return s.store.AddWater(ctx, date, glasses, s.clock.Now())
}

// LogWorkout appends a workout finished outside a live session. A workout
// whose id is already in the history is returned unchanged, so redelivered
// ingest messages are not counted twice.
func (s *Service) LogWorkout(ctx context.Context, w domain.WorkoutRecord) (domain.WorkoutRecord, error) {
	if w.ID != "" {
		existing, err := s.store.Workout(ctx, w.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.WorkoutRecord{}, err
		}
	}
	return s.store.AppendWorkout(ctx, w)
}

var sleepQualities = map[string]bool{"poor": true, "fair": true, "good": true, "excellent": true}

// LogSleep records a night keyed by the bedtime's date. A wake time earlier
// than the bedtime wraps past midnight.
func (s *Service) LogSleep(ctx context.Context, bedtime, wake time.Time, quality string) (domain.SleepRecord, error) {
	if bedtime.IsZero() || wake.IsZero() {
		return domain.SleepRecord{}, fmt.Errorf("%w: bedtime and wake time are required", domain.ErrInvalidValue)
	}
	if quality == "" {
		quality = "good"
	}
	if !sleepQualities[quality] {
		return domain.SleepRecord{}, fmt.Errorf("%w: sleep quality %q", domain.ErrInvalidValue, quality)
	}
	d := wake.Sub(bedtime)
	if d < 0 {
		d += 24 * time.Hour
	}
	if d > 24*time.Hour {
		return domain.SleepRecord{}, fmt.Errorf("%w: sleep longer than a day", domain.ErrInvalidValue)
	}
	loc := s.store.Location()
	rec := domain.SleepRecord{
		Bedtime:       bedtime,
		WakeTime:      wake,
		DurationHours: math.Round(d.Hours()*10) / 10,
		Quality:       quality,
		Date:          domain.DateOf(bedtime.In(loc)),
	}
	if err := s.store.SetSleep(ctx, rec); err != nil {
		return domain.SleepRecord{}, err
	}
	return rec, nil
}
