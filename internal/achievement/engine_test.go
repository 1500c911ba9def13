package achievement

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/activity"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/streak"
	"example.com/fittrack/internal/testsupport"
)

type harness struct {
	clock   *testsupport.ManualClock
	bus     *events.Bus
	store   *activity.Store
	tracker *streak.Tracker
	engine  *Engine

	mu      sync.Mutex
	emitted []events.Event
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()
	logger := log.New(testWriter{t}, "", 0)
	h := &harness{clock: testsupport.NewManualClock(start)}
	h.bus = events.NewBus(events.WithLogger(logger))
	h.store = activity.NewStore(memory.New(), activity.WithClock(h.clock.Now), activity.WithPublisher(h.bus), activity.WithLogger(logger))
	h.tracker = streak.NewTracker(h.store, h.bus)
	h.engine = NewEngine(h.store, h.tracker, h.bus, WithLogger(logger))
	h.engine.Register(h.bus)
	h.bus.Subscribe(func(_ context.Context, e events.Event) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.emitted = append(h.emitted, e)
	}, events.TypeAchievementAwarded, events.TypeLevelUp, events.TypeStreakUpdated)
	return h
}

func (h *harness) awardedIDs(t *testing.T) []string {
	t.Helper()
	awarded, err := h.store.Achievements(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(awarded))
	for _, a := range awarded {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestStepIncrementsAwardEachThresholdOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		_, err := h.store.Increment(ctx, h.store.Today(), domain.FieldSteps, 200)
		require.NoError(t, err)
	}

	require.Equal(t, []string{"first_steps", "thousand_steps"}, h.awardedIDs(t))

	profile, err := h.store.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, 30, profile.Points)
}

func TestDailyCategoryCanRepeatOnAnotherDate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.store.SetAbsolute(ctx, h.store.Today(), domain.FieldSteps, 150)
	require.NoError(t, err)
	_, err = h.store.SetAbsolute(ctx, h.store.Today(), domain.FieldSteps, 160)
	require.NoError(t, err)
	require.Equal(t, []string{"first_steps"}, h.awardedIDs(t))

	h.clock.Advance(24 * time.Hour)
	_, err = h.store.SetAbsolute(ctx, h.store.Today(), domain.FieldSteps, 150)
	require.NoError(t, err)
	require.Equal(t, []string{"first_steps", "first_steps"}, h.awardedIDs(t))
}

func TestBackfilledStepsDoNotAward(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.store.SetAbsolute(ctx, "2025-04-01", domain.FieldSteps, 12000)
	require.NoError(t, err)
	require.Empty(t, h.awardedIDs(t))
}

func TestMilestoneIsNeverAwardedTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		_, err := h.store.AppendWorkout(ctx, domain.WorkoutRecord{
			Name:            "Run",
			Category:        domain.CategoryCardio,
			StartTime:       h.clock.Now(),
			DurationMinutes: 20,
			CaloriesBurned:  150,
		})
		require.NoError(t, err)
		h.clock.Advance(24 * time.Hour)
	}

	require.Equal(t, []string{"first_workout"}, h.awardedIDs(t))
}

func TestWorkoutRulesForDurationCaloriesAndTimeOfDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 9, 6, 30, 0, 0, time.UTC))

	_, err := h.store.AppendWorkout(ctx, domain.WorkoutRecord{
		Name:               "Long ride",
		Category:           domain.CategoryCardio,
		StartTime:          h.clock.Now(),
		DurationMinutes:    75,
		CaloriesBurned:     640,
		PlannedExercises:   1,
		CompletedExercises: []domain.CompletedExercise{{ExerciseID: "cycling"}},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"first_workout", "marathon_trainer", "calorie_crusher", "early_bird", "perfectionist"}, h.awardedIDs(t))

	h.clock.Advance(14*time.Hour + 29*time.Minute) // 20:59
	_, err = h.store.AppendWorkout(ctx, domain.WorkoutRecord{Name: "Stretch", Category: domain.CategoryYoga, StartTime: h.clock.Now(), DurationMinutes: 10})
	require.NoError(t, err)
	require.NotContains(t, h.awardedIDs(t), "night_owl")

	h.clock.Advance(time.Minute) // 21:00
	_, err = h.store.AppendWorkout(ctx, domain.WorkoutRecord{Name: "Stretch", Category: domain.CategoryYoga, StartTime: h.clock.Now(), DurationMinutes: 10})
	require.NoError(t, err)
	require.Contains(t, h.awardedIDs(t), "night_owl")
}

func TestWeekendWarriorNeedsBothDays(t *testing.T) {
	ctx := context.Background()
	saturday := time.Date(2025, time.April, 12, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, saturday)

	_, err := h.store.AppendWorkout(ctx, domain.WorkoutRecord{Name: "Lift", Category: domain.CategoryStrength, StartTime: saturday, DurationMinutes: 30})
	require.NoError(t, err)
	require.NotContains(t, h.awardedIDs(t), "weekend_warrior")

	h.clock.Advance(24 * time.Hour)
	_, err = h.store.AppendWorkout(ctx, domain.WorkoutRecord{Name: "Run", Category: domain.CategoryCardio, StartTime: h.clock.Now(), DurationMinutes: 30})
	require.NoError(t, err)
	require.Contains(t, h.awardedIDs(t), "weekend_warrior")
}

func TestGoalGetterRequiresAllFourAndIsNotRevoked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))
	today := h.store.Today()

	for field, value := range map[domain.Field]float64{
		domain.FieldSteps:         10000,
		domain.FieldCalories:      2500,
		domain.FieldDistance:      10,
		domain.FieldActiveMinutes: 59,
	} {
		_, err := h.store.SetAbsolute(ctx, today, field, value)
		require.NoError(t, err)
	}

	awarded, err := h.engine.Evaluate(ctx, events.GoalCheck{Date: today})
	require.NoError(t, err)
	require.Empty(t, awarded)

	_, err = h.store.SetAbsolute(ctx, today, domain.FieldActiveMinutes, 60)
	require.NoError(t, err)
	awarded, err = h.engine.Evaluate(ctx, events.GoalCheck{Date: today})
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "goal_getter", awarded[0].ID)

	_, err = h.store.SetAbsolute(ctx, today, domain.FieldSteps, 10)
	require.NoError(t, err)
	awarded, err = h.engine.Evaluate(ctx, events.GoalCheck{Date: today})
	require.NoError(t, err)
	require.Empty(t, awarded)
	require.Contains(t, h.awardedIDs(t), "goal_getter")
}

func TestOverachieverAtOneHundredFiftyPercent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))
	today := h.store.Today()

	for field, value := range map[domain.Field]float64{
		domain.FieldSteps:         15000,
		domain.FieldCalories:      3750,
		domain.FieldDistance:      15,
		domain.FieldActiveMinutes: 90,
	} {
		_, err := h.store.SetAbsolute(ctx, today, field, value)
		require.NoError(t, err)
	}

	awarded, err := h.engine.Evaluate(ctx, events.GoalCheck{Date: today})
	require.NoError(t, err)
	ids := make([]string, 0, len(awarded))
	for _, a := range awarded {
		ids = append(ids, a.ID)
	}
	require.Equal(t, []string{"goal_getter", "overachiever"}, ids)
}

func TestStreakCheckAwardsThreeDayStreak(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	for day := 0; day < 3; day++ {
		_, err := h.store.SetAbsolute(ctx, h.store.Today(), domain.FieldActiveMinutes, 45)
		require.NoError(t, err)
		_, err = h.engine.Evaluate(ctx, events.StreakCheck{})
		require.NoError(t, err)
		h.clock.Advance(24 * time.Hour)
	}

	require.Contains(t, h.awardedIDs(t), "three_day_streak")
}

func TestLateGoalCheckStaysOnCheckedDate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))

	meetGoals := func(date string) {
		for field, value := range map[domain.Field]float64{
			domain.FieldSteps:         10000,
			domain.FieldCalories:      2500,
			domain.FieldDistance:      10,
			domain.FieldActiveMinutes: 60,
		} {
			_, err := h.store.SetAbsolute(ctx, date, field, value)
			require.NoError(t, err)
		}
	}

	meetGoals("2025-04-09")
	h.clock.Set(time.Date(2025, time.April, 10, 0, 0, 0, 5_000_000, time.UTC))
	awarded, err := h.engine.Evaluate(ctx, events.GoalCheck{Date: "2025-04-09"})
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "2025-04-09", awarded[0].Date(time.UTC))

	meetGoals("2025-04-10")
	awarded, err = h.engine.Evaluate(ctx, events.GoalCheck{Date: "2025-04-10"})
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	require.Equal(t, "goal_getter", awarded[0].ID)
	require.Equal(t, "2025-04-10", awarded[0].Date(time.UTC))
}

func TestLateStreakCheckCountsCheckedDate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 23, 59, 0, 0, time.UTC))

	for day := 0; day < 3; day++ {
		date := h.store.Today()
		_, err := h.store.SetAbsolute(ctx, date, domain.FieldActiveMinutes, 45)
		require.NoError(t, err)
		// Each check fires a few minutes after the day it covers has ended.
		h.clock.Advance(2 * time.Minute)
		_, err = h.engine.Evaluate(ctx, events.StreakCheck{Date: date})
		require.NoError(t, err)
		h.clock.Advance(24*time.Hour - 2*time.Minute)
	}

	state, err := h.tracker.State(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, state.Current)
	require.Equal(t, "2025-04-09", state.LastActiveDate)
	require.Contains(t, h.awardedIDs(t), "three_day_streak")
}

func TestPastWaterLogDoesNotAwardHydration(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.store.AddWater(ctx, "2025-04-06", 8, h.clock.Now())
	require.NoError(t, err)
	require.NotContains(t, h.awardedIDs(t), "hydration_hero")
}

func TestHealthRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.store.AddWater(ctx, h.store.Today(), 8, h.clock.Now())
	require.NoError(t, err)
	require.Equal(t, []string{"hydration_hero"}, h.awardedIDs(t))

	awarded, err := h.engine.Evaluate(ctx, events.HealthLogged{Date: h.store.Today(), Metric: "heart_rate", Value: 80})
	require.NoError(t, err)
	require.Empty(t, awarded)
}

func TestMalformedTriggersAreIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	for _, trigger := range []events.Event{
		events.StepCountChanged{Total: 5000},
		events.WorkoutCompleted{},
		events.GoalCheck{},
		events.HealthLogged{Metric: events.MetricWater, Value: -1, Date: "2025-04-07"},
		events.LevelUp{Level: 3},
		nil,
	} {
		awarded, err := h.engine.Evaluate(ctx, trigger)
		require.NoError(t, err)
		require.Empty(t, awarded)
	}
	require.Empty(t, h.awardedIDs(t))
}

func TestAwardEmitsLevelUpOnBoundary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
		p.Points = 90
		return nil
	})
	require.NoError(t, err)

	_, ok, err := h.engine.Award(ctx, "first_steps")
	require.NoError(t, err)
	require.True(t, ok)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.emitted, 2)
	awarded, ok := h.emitted[0].(events.AchievementAwarded)
	require.True(t, ok)
	require.Equal(t, "first_steps", awarded.Achievement.ID)
	require.Equal(t, 100, awarded.TotalPoints)
	require.Equal(t, events.LevelUp{Level: 2, TotalPoints: 100, OccurredAt: h.clock.Now()}, h.emitted[1])
}

func TestConcurrentEvaluationAwardsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Evaluate(ctx, events.StepCountChanged{Date: "2025-04-07", Total: 150})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, []string{"first_steps"}, h.awardedIDs(t))
}

func TestShareAndEncourage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Date(2025, time.April, 7, 12, 0, 0, 0, time.UTC))

	_, err := h.engine.Share(ctx, "first_steps")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.engine.Share(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = h.engine.Award(ctx, "first_steps")
	require.NoError(t, err)
	res, err := h.engine.Share(ctx, "first_steps")
	require.NoError(t, err)
	require.Contains(t, res.Text, "First Steps")
	require.Len(t, res.New, 1)
	require.Equal(t, "sharing_is_caring", res.New[0].ID)

	for i := 0; i < 10; i++ {
		_, err := h.engine.Encourage(ctx)
		require.NoError(t, err)
	}
	require.Contains(t, h.awardedIDs(t), "motivator")

	require.NoError(t, h.engine.Reset(ctx))
	require.Empty(t, h.awardedIDs(t))
	profile, err := h.store.Profile(ctx)
	require.NoError(t, err)
	require.Zero(t, profile.Points)
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
