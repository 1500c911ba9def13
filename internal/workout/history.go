package workout

import (
	"context"
	"fmt"
	"slices"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence"
)

// DefaultPageSize bounds history pages when no limit is given.
const DefaultPageSize = 20

// Filter narrows a history query. Dates are inclusive calendar dates.
type Filter struct {
	Category  domain.WorkoutCategory
	StartDate string
	EndDate   string
	Limit     int
	Cursor    string
}

// Page is one page of history, newest first.
type Page struct {
	Workouts   []domain.WorkoutRecord `json:"workouts"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// History returns finished workouts matching f, ordered by start time
// descending. NextCursor is set when the page is full.
func (m *Manager) History(ctx context.Context, f Filter) (Page, error) {
	if f.Category != "" && !f.Category.Valid() {
		return Page{}, fmt.Errorf("%w: workout category %q", domain.ErrInvalidValue, f.Category)
	}
	loc := m.store.Location()
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := domain.ParseDate(d, loc); err != nil {
			return Page{}, err
		}
	}
	cursor, err := persistence.DecodeCursor(f.Cursor)
	if err != nil {
		return Page{}, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	history, err := m.store.Workouts(ctx)
	if err != nil {
		return Page{}, err
	}
	slices.SortStableFunc(history, newestFirst)

	out := make([]domain.WorkoutRecord, 0, limit)
	for _, w := range history {
		if f.Category != "" && w.Category != f.Category {
			continue
		}
		date := domain.DateOf(w.StartTime.In(loc))
		if f.StartDate != "" && date < f.StartDate {
			continue
		}
		if f.EndDate != "" && date > f.EndDate {
			continue
		}
		if cursor != nil && !before(w, *cursor) {
			continue
		}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}

	page := Page{Workouts: out}
	if len(out) == limit {
		last := out[len(out)-1]
		page.NextCursor = persistence.EncodeCursor(&domain.Cursor{StartTime: last.StartTime, ID: last.ID})
	}
	return page, nil
}

func newestFirst(a, b domain.WorkoutRecord) int {
	if c := b.StartTime.Compare(a.StartTime); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}

// before reports whether w sorts after the cursor position in newest-first order.
func before(w domain.WorkoutRecord, c domain.Cursor) bool {
	if !w.StartTime.Equal(c.StartTime) {
		return w.StartTime.Before(c.StartTime)
	}
	return w.ID < c.ID
}

// Stat periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// Stats summarises the workouts of a period.
type Stats struct {
	Period            string                         `json:"period"`
	Since             time.Time                      `json:"since"`
	TotalWorkouts     int                            `json:"totalWorkouts"`
	TotalDuration     int                            `json:"totalDuration"`
	TotalCalories     int                            `json:"totalCalories"`
	AverageDuration   int                            `json:"averageDuration"`
	FavoriteCategory  domain.WorkoutCategory         `json:"favoriteCategory,omitempty"`
	CategoryBreakdown map[domain.WorkoutCategory]int `json:"categoryBreakdown"`
}

// Stats aggregates workouts started since the beginning of period: the last
// seven days, the current month, the current year, or all time.
func (m *Manager) Stats(ctx context.Context, period string) (Stats, error) {
	now := m.store.Now()
	loc := m.store.Location()
	var since time.Time
	switch period {
	case PeriodWeek, "":
		period = PeriodWeek
		since = now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		since = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case PeriodAll:
	default:
		return Stats{}, fmt.Errorf("%w: period %q", domain.ErrInvalidValue, period)
	}

	history, err := m.store.Workouts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Period: period, Since: since, CategoryBreakdown: make(map[domain.WorkoutCategory]int)}
	best := 0
	for _, w := range history {
		if w.StartTime.Before(since) {
			continue
		}
		stats.TotalWorkouts++
		stats.TotalDuration += w.DurationMinutes
		stats.TotalCalories += w.CaloriesBurned
		stats.CategoryBreakdown[w.Category]++
		if n := stats.CategoryBreakdown[w.Category]; n > best {
			best = n
			stats.FavoriteCategory = w.Category
		}
	}
	if stats.TotalWorkouts > 0 {
		stats.AverageDuration = (stats.TotalDuration + stats.TotalWorkouts/2) / stats.TotalWorkouts
	}
	return stats, nil
}

// Records are the personal bests over the stored history.
type Records struct {
	LongestWorkout     *domain.WorkoutRecord `json:"longestWorkout,omitempty"`
	MostCaloriesBurned *domain.WorkoutRecord `json:"mostCaloriesBurned,omitempty"`
	MostWorkoutsInWeek int                   `json:"mostWorkoutsInWeek"`
	CurrentStreak      int                   `json:"currentStreak"`
	TotalWorkouts      int                   `json:"totalWorkouts"`
	TotalDuration      int                   `json:"totalDuration"`
	TotalCalories      int                   `json:"totalCalories"`
}

// PersonalRecords computes personal bests. The streak counts consecutive
// days ending today with at least one workout.
func (m *Manager) PersonalRecords(ctx context.Context) (Records, error) {
	history, err := m.store.Workouts(ctx)
	if err != nil {
		return Records{}, err
	}
	loc := m.store.Location()
	var r Records
	days := make(map[string]bool, len(history))
	weeks := make(map[string]int)
	for i := range history {
		w := history[i]
		r.TotalWorkouts++
		r.TotalDuration += w.DurationMinutes
		r.TotalCalories += w.CaloriesBurned
		if r.LongestWorkout == nil || w.DurationMinutes > r.LongestWorkout.DurationMinutes {
			r.LongestWorkout = &history[i]
		}
		if r.MostCaloriesBurned == nil || w.CaloriesBurned > r.MostCaloriesBurned.CaloriesBurned {
			r.MostCaloriesBurned = &history[i]
		}

		date := domain.DateOf(w.StartTime.In(loc))
		days[date] = true
		start := domain.DateOf(w.StartTime.In(loc).AddDate(0, 0, -int(w.StartTime.In(loc).Weekday())))
		weeks[start]++
		r.MostWorkoutsInWeek = max(r.MostWorkoutsInWeek, weeks[start])
	}

	for date := m.store.Today(); days[date] && r.CurrentStreak < 365; date = domain.AddDays(date, -1) {
		r.CurrentStreak++
	}
	return r, nil
}
