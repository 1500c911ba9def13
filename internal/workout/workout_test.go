package workout

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/activity"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/testsupport"
)

func newManager(t *testing.T, start time.Time) (*Manager, *activity.Store, *testsupport.ManualClock) {
	t.Helper()
	clock := testsupport.NewManualClock(start)
	store := activity.NewStore(memory.New(), activity.WithClock(clock.Now))
	return NewManager(store, WithLogger(log.New(testWriter{t}, "", 0))), store, clock
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, time.April, 9, 18, 0, 0, 0, time.UTC)
	m, store, clock := newManager(t, start)

	_, err := m.Start(StartRequest{TemplateID: "leg_day"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	session, err := m.Start(StartRequest{TemplateID: "full_body_hiit"})
	require.NoError(t, err)
	require.Equal(t, "Full Body HIIT", session.Name)
	require.Equal(t, domain.CategoryHIIT, session.Category)
	require.Len(t, session.Plan, 5)

	_, err = m.Start(StartRequest{Name: "Second"})
	require.ErrorIs(t, err, domain.ErrAlreadyInProgress)

	clock.Advance(10 * time.Minute)
	_, err = m.Pause()
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	paused, err := m.Pause()
	require.NoError(t, err)
	require.True(t, paused.Paused)
	require.Equal(t, 600, paused.ElapsedSeconds)

	resumed, err := m.Resume()
	require.NoError(t, err)
	require.False(t, resumed.Paused)

	_, err = m.CompleteExercise(domain.CompletedExercise{ExerciseID: "burpees", DurationSeconds: 60})
	require.NoError(t, err)
	current, err := m.CompleteExercise(domain.CompletedExercise{ExerciseID: "running", DurationSeconds: 300})
	require.NoError(t, err)
	require.Equal(t, 75.0, current.Calories)
	require.Equal(t, 2, current.CurrentIndex)
	require.Equal(t, "Burpees", current.Completed[0].Name)

	_, err = m.CompleteExercise(domain.CompletedExercise{ExerciseID: "moonwalk", DurationSeconds: 60})
	require.ErrorIs(t, err, domain.ErrNotFound)

	clock.Advance(20 * time.Minute)
	record, err := m.End(ctx, "felt strong")
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, 30, record.DurationMinutes)
	require.Equal(t, 75, record.CaloriesBurned)
	require.Equal(t, 5, record.PlannedExercises)
	require.Len(t, record.CompletedExercises, 2)
	require.Equal(t, "felt strong", record.Notes)
	require.Equal(t, start.Add(35*time.Minute), record.EndTime)

	_, ok := m.Current()
	require.False(t, ok)
	_, err = m.End(ctx, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Pause()
	require.ErrorIs(t, err, domain.ErrNotFound)

	day, err := store.Record(ctx, "2025-04-09")
	require.NoError(t, err)
	require.Equal(t, 30, day.ActiveMinutes)
	require.Equal(t, []string{record.ID}, day.WorkoutIDs)
}

func TestCustomSessionDefaults(t *testing.T) {
	m, _, _ := newManager(t, time.Date(2025, time.April, 9, 18, 0, 0, 0, time.UTC))

	session, err := m.Start(StartRequest{})
	require.NoError(t, err)
	require.Equal(t, "Custom Workout", session.Name)
	require.Equal(t, domain.CategoryCustom, session.Category)
	require.NoError(t, m.Discard())
	require.ErrorIs(t, m.Discard(), domain.ErrNotFound)

	_, err = m.Start(StartRequest{Category: "pilates"})
	require.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = m.Start(StartRequest{Exercises: []PlannedExercise{{ExerciseID: "moonwalk"}}})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEstimateDuration(t *testing.T) {
	tpl, ok := DefaultCatalog().Template("upper_body_strength")
	require.True(t, ok)
	require.Equal(t, 10, EstimateDuration(tpl.Exercises))

	require.Zero(t, EstimateDuration(nil))
	custom := CustomTemplate("Quick", []PlannedExercise{{ExerciseID: "plank", DurationSeconds: 61}})
	require.Equal(t, 2, custom.DurationMinutes)
	require.Equal(t, domain.CategoryCustom, custom.Category)
}

func TestCatalogSearch(t *testing.T) {
	c := DefaultCatalog()

	ids := func(exs []Exercise) []string {
		out := make([]string, 0, len(exs))
		for _, ex := range exs {
			out = append(out, ex.ID)
		}
		return out
	}
	require.Equal(t, []string{"push_up", "bench_press"}, ids(c.Search("chest", 0)))
	require.Equal(t, []string{"squat"}, ids(c.Search("  SQU ", 0)))
	require.Len(t, c.Search("", 3), 3)
	require.Empty(t, c.Search("zumba", 10))
	require.Len(t, c.ByCategory(domain.CategoryYoga), 3)
	require.Len(t, c.Templates(), 4)
}

func seedHistory(t *testing.T, store *activity.Store) []domain.WorkoutRecord {
	t.Helper()
	ctx := context.Background()
	inputs := []domain.WorkoutRecord{
		{Name: "a", Category: domain.CategoryCardio, StartTime: time.Date(2025, time.March, 30, 8, 0, 0, 0, time.UTC), DurationMinutes: 30, CaloriesBurned: 300},
		{Name: "b", Category: domain.CategoryStrength, StartTime: time.Date(2025, time.April, 2, 8, 0, 0, 0, time.UTC), DurationMinutes: 45, CaloriesBurned: 250},
		{Name: "c", Category: domain.CategoryCardio, StartTime: time.Date(2025, time.April, 7, 8, 0, 0, 0, time.UTC), DurationMinutes: 20, CaloriesBurned: 420},
		{Name: "d", Category: domain.CategoryCardio, StartTime: time.Date(2025, time.April, 8, 8, 0, 0, 0, time.UTC), DurationMinutes: 25, CaloriesBurned: 200},
		{Name: "e", Category: domain.CategoryYoga, StartTime: time.Date(2025, time.April, 9, 7, 0, 0, 0, time.UTC), DurationMinutes: 60, CaloriesBurned: 150},
	}
	out := make([]domain.WorkoutRecord, 0, len(inputs))
	for _, w := range inputs {
		saved, err := store.AppendWorkout(ctx, w)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func TestHistoryFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t, time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))
	seedHistory(t, store)

	names := func(p Page) []string {
		out := make([]string, 0, len(p.Workouts))
		for _, w := range p.Workouts {
			out = append(out, w.Name)
		}
		return out
	}

	page, err := m.History(ctx, Filter{Category: domain.CategoryCardio})
	require.NoError(t, err)
	require.Equal(t, []string{"d", "c", "a"}, names(page))
	require.Empty(t, page.NextCursor)

	page, err = m.History(ctx, Filter{StartDate: "2025-04-02", EndDate: "2025-04-07"})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, names(page))

	var all []string
	cursor := ""
	for {
		page, err = m.History(ctx, Filter{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		all = append(all, names(page)...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, all)

	_, err = m.History(ctx, Filter{Cursor: "%%%"})
	require.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = m.History(ctx, Filter{Category: "pilates"})
	require.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = m.History(ctx, Filter{StartDate: "yesterday"})
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t, time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))
	seedHistory(t, store)

	week, err := m.Stats(ctx, PeriodWeek)
	require.NoError(t, err)
	require.Equal(t, 3, week.TotalWorkouts)
	require.Equal(t, 105, week.TotalDuration)
	require.Equal(t, 35, week.AverageDuration)
	require.Equal(t, domain.CategoryCardio, week.FavoriteCategory)
	require.Equal(t, map[domain.WorkoutCategory]int{
		domain.CategoryCardio: 2,
		domain.CategoryYoga:   1,
	}, week.CategoryBreakdown)

	month, err := m.Stats(ctx, PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, 4, month.TotalWorkouts)

	all, err := m.Stats(ctx, PeriodAll)
	require.NoError(t, err)
	require.Equal(t, 5, all.TotalWorkouts)
	require.Equal(t, 1320, all.TotalCalories)

	_, err = m.Stats(ctx, "decade")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestPersonalRecords(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t, time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))

	empty, err := m.PersonalRecords(ctx)
	require.NoError(t, err)
	require.Nil(t, empty.LongestWorkout)
	require.Zero(t, empty.CurrentStreak)

	seedHistory(t, store)
	r, err := m.PersonalRecords(ctx)
	require.NoError(t, err)
	require.Equal(t, "e", r.LongestWorkout.Name)
	require.Equal(t, "c", r.MostCaloriesBurned.Name)
	require.Equal(t, 3, r.MostWorkoutsInWeek)
	require.Equal(t, 3, r.CurrentStreak)
	require.Equal(t, 5, r.TotalWorkouts)
	require.Equal(t, 180, r.TotalDuration)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newManager(t, time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC))
	saved := seedHistory(t, store)

	notes := "hilly"
	updated, err := m.Update(ctx, saved[0].ID, Patch{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, "hilly", updated.Notes)
	require.Equal(t, saved[0].StartTime, updated.StartTime)

	bad := domain.WorkoutCategory("pilates")
	_, err = m.Update(ctx, saved[0].ID, Patch{Category: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = m.Update(ctx, "missing", Patch{Notes: &notes})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, m.Delete(ctx, saved[0].ID))
	_, err = m.Get(ctx, saved[0].ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, m.Delete(ctx, saved[0].ID), domain.ErrNotFound)
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
