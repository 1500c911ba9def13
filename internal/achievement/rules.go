package achievement

import (
	"context"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/streak"
)

const (
	earlyBirdBeforeHour = 7
	nightOwlFromHour    = 21
)

// candidates returns the definitions whose requirement trigger satisfies, in
// catalog order. Malformed triggers yield nothing.
func (e *Engine) candidates(ctx context.Context, trigger events.Event) ([]domain.Achievement, error) {
	switch ev := trigger.(type) {
	case events.StepCountChanged:
		return e.stepRules(ev), nil
	case events.WorkoutCompleted:
		return e.workoutRules(ctx, ev)
	case events.HealthLogged:
		return e.healthRules(ctx, ev)
	case events.GoalCheck:
		return e.goalRules(ctx, ev)
	case events.StreakCheck:
		return e.streakRules(ctx, ev)
	case events.SocialLogged:
		return e.socialRules(ev), nil
	case nil:
		e.logger.Printf("ignoring nil trigger")
		return nil, nil
	default:
		e.logger.Printf("ignoring trigger %s", trigger.EventType())
		return nil, nil
	}
}

func (e *Engine) stepRules(ev events.StepCountChanged) []domain.Achievement {
	if ev.Date == "" || ev.Total < 0 {
		e.logger.Printf("ignoring malformed step trigger: %+v", ev)
		return nil
	}
	// Step achievements are scoped to a single day; backfilled dates do not count.
	if ev.Date != e.store.Today() {
		return nil
	}
	return e.threshold(domain.AchievementSteps, float64(ev.Total))
}

func (e *Engine) threshold(category domain.AchievementCategory, value float64) []domain.Achievement {
	var out []domain.Achievement
	for _, def := range e.catalog.ByCategory(category) {
		if value >= def.Requirement {
			out = append(out, def)
		}
	}
	return out
}

func (e *Engine) workoutRules(ctx context.Context, ev events.WorkoutCompleted) ([]domain.Achievement, error) {
	w := ev.Workout
	if w.ID == "" || w.StartTime.IsZero() {
		e.logger.Printf("ignoring malformed workout trigger: id=%q", w.ID)
		return nil, nil
	}
	history, err := e.store.Workouts(ctx)
	if err != nil {
		return nil, err
	}
	loc := e.store.Location()
	hour := w.StartTime.In(loc).Hour()

	var out []domain.Achievement
	for _, category := range []domain.AchievementCategory{domain.AchievementWorkouts, domain.AchievementSpecial} {
		for _, def := range e.catalog.ByCategory(category) {
			var met bool
			switch def.ID {
			case "first_workout", "workout_warrior", "fitness_fanatic":
				met = float64(len(history)) >= def.Requirement
			case "marathon_trainer":
				met = float64(w.DurationMinutes) >= def.Requirement
			case "calorie_crusher":
				met = float64(w.CaloriesBurned) >= def.Requirement
			case "early_bird":
				met = hour < earlyBirdBeforeHour
			case "night_owl":
				met = hour >= nightOwlFromHour
			case "weekend_warrior":
				met = weekendPair(history, w, loc)
			case "perfectionist":
				met = w.PlannedExercises > 0 && len(w.CompletedExercises) >= w.PlannedExercises
			}
			if met {
				out = append(out, def)
			}
		}
	}
	return out, nil
}

// weekendPair reports whether w falls on a weekend whose other day also has a workout.
func weekendPair(history []domain.WorkoutRecord, w domain.WorkoutRecord, loc *time.Location) bool {
	start := w.StartTime.In(loc)
	var other string
	switch start.Weekday() {
	case time.Saturday:
		other = domain.DateOf(start.AddDate(0, 0, 1))
	case time.Sunday:
		other = domain.DateOf(start.AddDate(0, 0, -1))
	default:
		return false
	}
	for _, h := range history {
		if h.ID != w.ID && domain.DateOf(h.StartTime.In(loc)) == other {
			return true
		}
	}
	return false
}

func (e *Engine) healthRules(ctx context.Context, ev events.HealthLogged) ([]domain.Achievement, error) {
	if ev.Date == "" || ev.Value < 0 {
		e.logger.Printf("ignoring malformed health trigger: %+v", ev)
		return nil, nil
	}
	var out []domain.Achievement
	switch ev.Metric {
	case events.MetricWater:
		// Hydration counts only for the current day, like steps.
		if def, ok := e.catalog.Get("hydration_hero"); ok && ev.Date == e.store.Today() && ev.Value >= def.Requirement {
			out = append(out, def)
		}
	case events.MetricSleep:
		if def, ok := e.catalog.Get("sleep_champion"); ok && ev.Value >= def.Requirement {
			out = append(out, def)
		}
	default:
		e.logger.Printf("ignoring health trigger with metric %q", ev.Metric)
		return nil, nil
	}

	if def, ok := e.catalog.Get("health_tracker"); ok {
		records, err := e.store.Records(ctx)
		if err != nil {
			return nil, err
		}
		days := streak.CountBack(records, e.store.Today(), int(def.Requirement), func(r domain.DailyActivityRecord) bool {
			return r.WaterGlasses > 0 || r.SleepHours > 0
		}, false)
		if float64(days) >= def.Requirement {
			out = append(out, def)
		}
	}
	return out, nil
}

func (e *Engine) goalRules(ctx context.Context, ev events.GoalCheck) ([]domain.Achievement, error) {
	if ev.Date == "" {
		e.logger.Printf("ignoring goal check without date")
		return nil, nil
	}
	goals, err := e.store.Goals(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := records[ev.Date]
	if !ok {
		rec = domain.NewDailyActivityRecord(ev.Date)
	}

	var out []domain.Achievement
	for _, def := range e.catalog.ByCategory(domain.AchievementGoals) {
		var met bool
		switch def.ID {
		case "goal_getter":
			met = rec.MeetsGoals(goals.Daily, 1)
		case "overachiever":
			met = rec.MeetsGoals(goals.Daily, def.Requirement)
		case "consistency_king":
			days := streak.CountBack(records, ev.Date, int(def.Requirement), func(r domain.DailyActivityRecord) bool {
				return r.MeetsGoals(goals.Daily, 1)
			}, false)
			met = float64(days) >= def.Requirement
		}
		if met {
			out = append(out, def)
		}
	}
	return out, nil
}

func (e *Engine) streakRules(ctx context.Context, ev events.StreakCheck) ([]domain.Achievement, error) {
	if e.streak == nil {
		return nil, nil
	}
	date := ev.Date
	if date == "" {
		date = e.store.Today()
	}
	current, err := e.streak.EvaluateFor(ctx, date)
	if err != nil {
		return nil, err
	}
	return e.threshold(domain.AchievementStreaks, float64(current)), nil
}

func (e *Engine) socialRules(ev events.SocialLogged) []domain.Achievement {
	if ev.Shares < 0 || ev.Encouragements < 0 {
		e.logger.Printf("ignoring malformed social trigger: %+v", ev)
		return nil
	}
	var out []domain.Achievement
	for _, def := range e.catalog.ByCategory(domain.AchievementSocial) {
		var value int
		switch def.ID {
		case "sharing_is_caring":
			value = ev.Shares
		case "motivator":
			value = ev.Encouragements
		}
		if float64(value) >= def.Requirement {
			out = append(out, def)
		}
	}
	return out
}
