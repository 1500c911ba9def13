package progress

import (
	"context"
	"fmt"
	"time"

	"example.com/fittrack/internal/domain"
)

// PeriodStats is a per-day series plus totals over a date range.
type PeriodStats struct {
	Start              string    `json:"start"`
	End                string    `json:"end"`
	Dates              []string  `json:"dates"`
	Steps              []int     `json:"steps"`
	Calories           []float64 `json:"calories"`
	Distance           []float64 `json:"distance"`
	ActiveMinutes      []int     `json:"activeMinutes"`
	Workouts           int       `json:"workouts"`
	TotalSteps         int       `json:"totalSteps"`
	TotalCalories      float64   `json:"totalCalories"`
	TotalDistance      float64   `json:"totalDistance"`
	TotalActiveMinutes int       `json:"totalActiveMinutes"`
	ActiveDays         int       `json:"activeDays"`
}

// WeekStart returns the Sunday on or before date.
func WeekStart(date string) (string, error) {
	wd, ok := domain.Weekday(date)
	if !ok {
		return "", fmt.Errorf("%w: date %q", domain.ErrInvalidValue, date)
	}
	return domain.AddDays(date, -int(wd)), nil
}

// WeeklyStats covers the Sunday-to-Saturday week containing weekStart.
// An empty weekStart selects the current week.
func (c *Calculator) WeeklyStats(ctx context.Context, weekStart string) (PeriodStats, error) {
	if weekStart == "" {
		weekStart = c.store.Today()
	}
	start, err := WeekStart(weekStart)
	if err != nil {
		return PeriodStats{}, err
	}
	return c.periodStats(ctx, start, domain.AddDays(start, 6))
}

// MonthlyStats covers every day of month in year. A zero year or month selects
// the current one.
func (c *Calculator) MonthlyStats(ctx context.Context, year int, month time.Month) (PeriodStats, error) {
	today, err := domain.ParseDate(c.store.Today(), c.store.Location())
	if err != nil {
		return PeriodStats{}, err
	}
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	if month < time.January || month > time.December || year < 1 {
		return PeriodStats{}, fmt.Errorf("%w: month %d-%d", domain.ErrInvalidValue, year, month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, c.store.Location())
	last := first.AddDate(0, 1, -1)
	return c.periodStats(ctx, domain.DateOf(first), domain.DateOf(last))
}

func (c *Calculator) periodStats(ctx context.Context, start, end string) (PeriodStats, error) {
	records, err := c.store.RecordsBetween(ctx, start, end)
	if err != nil {
		return PeriodStats{}, err
	}
	stats := PeriodStats{
		Start:         start,
		End:           end,
		Dates:         make([]string, 0, len(records)),
		Steps:         make([]int, 0, len(records)),
		Calories:      make([]float64, 0, len(records)),
		Distance:      make([]float64, 0, len(records)),
		ActiveMinutes: make([]int, 0, len(records)),
	}
	for _, r := range records {
		stats.Dates = append(stats.Dates, r.Date)
		stats.Steps = append(stats.Steps, r.Steps)
		stats.Calories = append(stats.Calories, r.Calories)
		stats.Distance = append(stats.Distance, r.DistanceKm)
		stats.ActiveMinutes = append(stats.ActiveMinutes, r.ActiveMinutes)

		stats.TotalSteps += r.Steps
		stats.TotalCalories += r.Calories
		stats.TotalDistance += r.DistanceKm
		stats.TotalActiveMinutes += r.ActiveMinutes
		stats.Workouts += len(r.WorkoutIDs)
		if r.Steps > 0 || r.ActiveMinutes > 0 {
			stats.ActiveDays++
		}
	}
	return stats, nil
}

// StepProgress is today's step count against the goal, with the derived
// calories and distance already credited to the record.
type StepProgress struct {
	Date       string  `json:"date"`
	Current    int     `json:"current"`
	Goal       int     `json:"goal"`
	Percentage float64 `json:"percentage"`
	Remaining  int     `json:"remaining"`
	Calories   float64 `json:"calories"`
	DistanceKm float64 `json:"distance"`
}

// StepProgress reports date's steps against the daily goal. An empty date selects today.
func (c *Calculator) StepProgress(ctx context.Context, date string) (StepProgress, error) {
	if date == "" {
		date = c.store.Today()
	}
	rec, err := c.store.Record(ctx, date)
	if err != nil {
		return StepProgress{}, err
	}
	goals, err := c.store.Goals(ctx)
	if err != nil {
		return StepProgress{}, err
	}
	return StepProgress{
		Date:       date,
		Current:    rec.Steps,
		Goal:       goals.Daily.Steps,
		Percentage: round1(percent(float64(rec.Steps), float64(goals.Daily.Steps))),
		Remaining:  max(goals.Daily.Steps-rec.Steps, 0),
		Calories:   round1(rec.Calories),
		DistanceKm: round2(rec.DistanceKm),
	}, nil
}

// StepHistory is the daily step series for the last n days ending today.
type StepHistory struct {
	Dates   []string `json:"dates"`
	Steps   []int    `json:"steps"`
	Total   int      `json:"totalSteps"`
	Average int      `json:"averageSteps"`
	BestDay int      `json:"bestDay"`
	// ActiveDays counts days above the streak threshold of 1000 steps.
	ActiveDays int `json:"activeDays"`
}

// StepHistory returns the last days of step counts, today included.
func (c *Calculator) StepHistory(ctx context.Context, days int) (StepHistory, error) {
	if days < 1 || days > 365 {
		return StepHistory{}, fmt.Errorf("%w: days must be between 1 and 365", domain.ErrInvalidValue)
	}
	end := c.store.Today()
	records, err := c.store.RecordsBetween(ctx, domain.AddDays(end, -(days-1)), end)
	if err != nil {
		return StepHistory{}, err
	}
	h := StepHistory{Dates: make([]string, 0, days), Steps: make([]int, 0, days)}
	for _, r := range records {
		h.Dates = append(h.Dates, r.Date)
		h.Steps = append(h.Steps, r.Steps)
		h.Total += r.Steps
		h.BestDay = max(h.BestDay, r.Steps)
		if r.Steps > 1000 {
			h.ActiveDays++
		}
	}
	h.Average = h.Total / days
	return h, nil
}
