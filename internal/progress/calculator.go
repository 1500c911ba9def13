// Package progress computes read-only rollups over the tracker state: period
// statistics, achievement completion, and health metrics derived from the profile.
package progress

import (
	"context"
	"math"
	"time"

	"example.com/fittrack/internal/achievement"
	"example.com/fittrack/internal/domain"
)

// Store is the read side of the activity store.
type Store interface {
	Today() string
	Location() *time.Location
	Record(ctx context.Context, date string) (domain.DailyActivityRecord, error)
	RecordsBetween(ctx context.Context, start, end string) ([]domain.DailyActivityRecord, error)
	Workouts(ctx context.Context) ([]domain.WorkoutRecord, error)
	Profile(ctx context.Context) (domain.UserProfile, error)
	Goals(ctx context.Context) (domain.Goals, error)
	Achievements(ctx context.Context) ([]domain.AwardedAchievement, error)
	StreakState(ctx context.Context) (domain.StreakState, error)
	Water(ctx context.Context, date string) (domain.WaterIntake, error)
	Sleep(ctx context.Context, date string) (domain.SleepRecord, bool, error)
}

// Calculator answers progress queries. It never writes.
type Calculator struct {
	store   Store
	catalog *achievement.Catalog
}

// NewCalculator constructs a Calculator. A nil catalog selects the built-in one.
func NewCalculator(store Store, catalog *achievement.Catalog) *Calculator {
	if catalog == nil {
		catalog = achievement.DefaultCatalog()
	}
	return &Calculator{store: store, catalog: catalog}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent returns current/goal as a percentage capped at 100.
func percent(current, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(current/goal*100, 100)
}
