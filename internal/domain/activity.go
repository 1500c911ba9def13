// Package domain defines the records, goals and errors shared by the fitness tracker.
package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date used as the key of every per-day record.
const DateLayout = "2006-01-02"

// Field names a numeric column of a DailyActivityRecord.
type Field string

const (
	FieldSteps         Field = "steps"
	FieldCalories      Field = "calories"
	FieldDistance      Field = "distance"
	FieldActiveMinutes Field = "activeMinutes"
	FieldWater         Field = "water"
	FieldSleep         Field = "sleep"
)

// Fields lists every mutable numeric field in display order.
var Fields = []Field{FieldSteps, FieldCalories, FieldDistance, FieldActiveMinutes, FieldWater, FieldSleep}

// ParseField validates a field name supplied by a caller.
func ParseField(raw string) (Field, error) {
	for _, f := range Fields {
		if string(f) == raw {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrInvalidValue, raw)
}

// DailyActivityRecord aggregates everything logged for one calendar date.
type DailyActivityRecord struct {
	Date          string    `json:"date"`
	Steps         int       `json:"steps"`
	Calories      float64   `json:"calories"`
	DistanceKm    float64   `json:"distance"`
	ActiveMinutes int       `json:"activeMinutes"`
	WaterGlasses  float64   `json:"water"`
	SleepHours    float64   `json:"sleep"`
	WorkoutIDs    []string  `json:"workouts"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// NewDailyActivityRecord returns the zero-valued record for date.
func NewDailyActivityRecord(date string) DailyActivityRecord {
	return DailyActivityRecord{Date: date, WorkoutIDs: []string{}}
}

// Value reads a numeric field.
func (r DailyActivityRecord) Value(f Field) float64 {
	switch f {
	case FieldSteps:
		return float64(r.Steps)
	case FieldCalories:
		return r.Calories
	case FieldDistance:
		return r.DistanceKm
	case FieldActiveMinutes:
		return float64(r.ActiveMinutes)
	case FieldWater:
		return r.WaterGlasses
	case FieldSleep:
		return r.SleepHours
	}
	return 0
}

// SetValue writes a numeric field. Integer fields are rounded to the nearest whole unit.
func (r *DailyActivityRecord) SetValue(f Field, v float64) error {
	switch f {
	case FieldSteps:
		r.Steps = int(math.Round(v))
	case FieldCalories:
		r.Calories = v
	case FieldDistance:
		r.DistanceKm = v
	case FieldActiveMinutes:
		r.ActiveMinutes = int(math.Round(v))
	case FieldWater:
		r.WaterGlasses = v
	case FieldSleep:
		r.SleepHours = v
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidValue, f)
	}
	return nil
}

// IsActive reports whether the day counts towards a streak.
func (r DailyActivityRecord) IsActive() bool {
	return r.Steps > 1000 || r.ActiveMinutes > 10
}

// MeetsGoals reports whether steps, calories, distance and active minutes all
// reach factor times their daily goal.
func (r DailyActivityRecord) MeetsGoals(g DailyGoals, factor float64) bool {
	return float64(r.Steps) >= float64(g.Steps)*factor &&
		r.Calories >= g.Calories*factor &&
		r.DistanceKm >= g.DistanceKm*factor &&
		float64(r.ActiveMinutes) >= float64(g.ActiveMinutes)*factor
}

// WaterLog is a single water intake entry.
type WaterLog struct {
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// WaterIntake holds the glasses logged on one date.
type WaterIntake struct {
	Glasses float64    `json:"glasses"`
	Logs    []WaterLog `json:"logs"`
}

// SleepRecord describes one night, keyed by the date of the bedtime.
type SleepRecord struct {
	Bedtime       time.Time `json:"bedtime"`
	WakeTime      time.Time `json:"wakeTime"`
	DurationHours float64   `json:"duration"`
	Quality       string    `json:"quality"`
	Date          string    `json:"date"`
}
