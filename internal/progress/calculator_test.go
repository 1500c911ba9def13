package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/achievement"
	"example.com/fittrack/internal/activity"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence/memory"
)

// 2025-04-09 is a Wednesday.
var wednesday = time.Date(2025, time.April, 9, 15, 0, 0, 0, time.UTC)

func newCalculator(t *testing.T) (*Calculator, *activity.Store) {
	t.Helper()
	store := activity.NewStore(memory.New(), activity.WithClock(func() time.Time { return wednesday }))
	require.NoError(t, store.Seed(context.Background()))
	return NewCalculator(store, nil), store
}

func award(t *testing.T, store *activity.Store, id string, at time.Time) {
	t.Helper()
	def, ok := achievement.DefaultCatalog().Get(id)
	require.True(t, ok)
	require.NoError(t, store.AppendAchievement(context.Background(), def.Award(at)))
}

func TestWeekStartIsSunday(t *testing.T) {
	start, err := WeekStart("2025-04-09")
	require.NoError(t, err)
	require.Equal(t, "2025-04-06", start)

	start, err = WeekStart("2025-04-06")
	require.NoError(t, err)
	require.Equal(t, "2025-04-06", start)

	_, err = WeekStart("April 9")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestWeeklyStats(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	_, err := store.SetAbsolute(ctx, "2025-04-06", domain.FieldSteps, 2000)
	require.NoError(t, err)
	_, err = store.SetAbsolute(ctx, "2025-04-12", domain.FieldSteps, 500)
	require.NoError(t, err)
	_, err = store.SetAbsolute(ctx, "2025-04-13", domain.FieldSteps, 9999)
	require.NoError(t, err)
	_, err = store.AppendWorkout(ctx, domain.WorkoutRecord{
		Name:            "Row",
		Category:        domain.CategoryCardio,
		StartTime:       time.Date(2025, time.April, 8, 7, 0, 0, 0, time.UTC),
		DurationMinutes: 25,
		CaloriesBurned:  200,
	})
	require.NoError(t, err)

	stats, err := calc.WeeklyStats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "2025-04-06", stats.Start)
	require.Equal(t, "2025-04-12", stats.End)
	require.Len(t, stats.Dates, 7)
	require.Equal(t, []int{2000, 0, 0, 0, 0, 0, 500}, stats.Steps)
	require.Equal(t, 2500, stats.TotalSteps)
	require.Equal(t, 25, stats.TotalActiveMinutes)
	require.Equal(t, 200.0, stats.TotalCalories)
	require.Equal(t, 1, stats.Workouts)
	require.Equal(t, 3, stats.ActiveDays)
}

func TestMonthlyStats(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	_, err := store.SetAbsolute(ctx, "2024-02-29", domain.FieldActiveMinutes, 15)
	require.NoError(t, err)

	stats, err := calc.MonthlyStats(ctx, 2024, time.February)
	require.NoError(t, err)
	require.Len(t, stats.Dates, 29)
	require.Equal(t, "2024-02-01", stats.Start)
	require.Equal(t, "2024-02-29", stats.End)
	require.Equal(t, 1, stats.ActiveDays)

	current, err := calc.MonthlyStats(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, current.Dates, 30)

	_, err = calc.MonthlyStats(ctx, 2024, 13)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestCompletionCountsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	pct, err := calc.CompletionPercentage(ctx)
	require.NoError(t, err)
	require.Zero(t, pct)

	award(t, store, "first_steps", wednesday.AddDate(0, 0, -1))
	award(t, store, "first_steps", wednesday)
	award(t, store, "first_workout", wednesday)

	pct, err = calc.CompletionPercentage(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, pct)
}

func TestProgressToward(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	_, err := calc.ProgressToward(ctx, "moon_walker")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.SetAbsolute(ctx, store.Today(), domain.FieldSteps, 5000)
	require.NoError(t, err)

	p, err := calc.ProgressToward(ctx, "five_k_steps")
	require.NoError(t, err)
	require.Equal(t, 1.0, p)

	p, err = calc.ProgressToward(ctx, "ten_k_steps")
	require.NoError(t, err)
	require.Equal(t, 0.5, p)

	_, err = store.AddWater(ctx, store.Today(), 2, wednesday)
	require.NoError(t, err)
	p, err = calc.ProgressToward(ctx, "hydration_hero")
	require.NoError(t, err)
	require.Equal(t, 0.25, p)

	p, err = calc.ProgressToward(ctx, "perfectionist")
	require.NoError(t, err)
	require.Zero(t, p)
}

func TestAvailableExcludesEarnedAndSortsByProgress(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	_, err := store.SetAbsolute(ctx, store.Today(), domain.FieldSteps, 5000)
	require.NoError(t, err)
	award(t, store, "first_steps", wednesday)

	available, err := calc.Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, achievement.DefaultCatalog().Len()-1)
	for _, a := range available {
		require.NotEqual(t, "first_steps", a.ID)
	}
	require.Equal(t, "thousand_steps", available[0].ID)
	require.Equal(t, "five_k_steps", available[1].ID)
	require.Equal(t, "ten_k_steps", available[2].ID)
	for i := 1; i < len(available); i++ {
		require.GreaterOrEqual(t, available[i-1].Progress, available[i].Progress)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	ids := []string{"first_steps", "thousand_steps", "first_workout", "hydration_hero", "early_bird", "night_owl"}
	for i, id := range ids {
		award(t, store, id, wednesday.Add(time.Duration(i)*time.Minute))
	}
	_, err := store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
		p.Points = 250
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveStreakState(ctx, domain.StreakState{Current: 2, Longest: 5, LastActiveDate: "2025-04-09"}))

	s, err := calc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, s.TotalAchievements)
	require.Equal(t, 25, s.TotalPossible)
	require.Equal(t, 24, s.CompletionPercentage)
	require.Equal(t, 2, s.Level)
	require.Equal(t, 400, s.NextLevelPoints)
	require.Equal(t, 2, s.CurrentStreak)
	require.Equal(t, 5, s.LongestStreak)
	require.Len(t, s.ByCategory[domain.AchievementSteps], 2)
	require.Len(t, s.Recent, 5)
	require.Equal(t, "night_owl", s.Recent[0].ID)
	require.Equal(t, "thousand_steps", s.Recent[4].ID)
}

func TestBMIAndEnergy(t *testing.T) {
	profile := domain.DefaultProfile(wednesday)

	bmi, err := ComputeBMI(profile)
	require.NoError(t, err)
	require.Equal(t, BMI{Value: 22.9, Category: BMINormal, HealthyRange: WeightRange{Min: 57, Max: 76}}, bmi)

	energy, err := ComputeEnergy(profile)
	require.NoError(t, err)
	require.Equal(t, 1696, energy.BMR)
	require.Equal(t, 2628, energy.TDEE)

	goal, err := CalorieGoal(energy, GoalLose)
	require.NoError(t, err)
	require.Equal(t, 2128, goal)
	goal, err = CalorieGoal(energy, GoalGain)
	require.NoError(t, err)
	require.Equal(t, 2928, goal)
	_, err = CalorieGoal(energy, "bulk")
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	profile.HeightCm = 0
	_, err = ComputeBMI(profile)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = ComputeEnergy(profile)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestBMICategories(t *testing.T) {
	cases := map[float64]string{
		18.4: BMIUnderweight,
		18.5: BMINormal,
		24.9: BMINormal,
		25:   BMIOverweight,
		30:   BMIObese,
	}
	for value, want := range cases {
		require.Equal(t, want, bmiCategory(value), "bmi %v", value)
	}
}

func TestHeartRateZones(t *testing.T) {
	zones, err := HeartRateZones(30)
	require.NoError(t, err)
	require.Equal(t, []HeartRateZone{
		{Name: "Resting", Min: 60, Max: 100},
		{Name: "Fat Burn", Min: 95, Max: 133},
		{Name: "Cardio", Min: 133, Max: 162},
		{Name: "Peak", Min: 162, Max: 190},
	}, zones)

	_, err = HeartRateZones(0)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestWaterSleepAndStepProgress(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	water, err := calc.WaterProgress(ctx, "")
	require.NoError(t, err)
	require.Zero(t, water.Current)
	require.Equal(t, 8.0, water.Remaining)
	require.Empty(t, water.Logs)

	_, err = store.AddWater(ctx, store.Today(), 10, wednesday)
	require.NoError(t, err)
	water, err = calc.WaterProgress(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 100.0, water.Percentage)
	require.Zero(t, water.Remaining)

	sleep, err := calc.SleepProgress(ctx, "")
	require.NoError(t, err)
	require.Nil(t, sleep.Record)

	require.NoError(t, store.SetSleep(ctx, domain.SleepRecord{DurationHours: 6, Date: store.Today()}))
	sleep, err = calc.SleepProgress(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 75.0, sleep.Percentage)

	_, err = store.SetAbsolute(ctx, store.Today(), domain.FieldSteps, 2500)
	require.NoError(t, err)
	steps, err := calc.StepProgress(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 25.0, steps.Percentage)
	require.Equal(t, 7500, steps.Remaining)

	history, err := calc.StepHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history.Steps, 7)
	require.Equal(t, 2500, history.BestDay)
	require.Equal(t, 1, history.ActiveDays)
	_, err = calc.StepHistory(ctx, 0)
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	trends, err := calc.WeeklyHealthTrends(ctx)
	require.NoError(t, err)
	require.Equal(t, "2025-04-09", trends.Dates[6])
	require.Equal(t, 10.0, trends.Water[6])
	require.Equal(t, 6.0, trends.Sleep[6])

	summary, err := calc.HealthSummary(ctx, wednesday)
	require.NoError(t, err)
	require.NotNil(t, summary.BMI)
	require.NotNil(t, summary.Energy)
	require.Len(t, summary.HeartRateZones, 4)
}
