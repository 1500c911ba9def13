package progress

import (
	"context"
	"fmt"
	"math"
	"slices"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/leveling"
)

const recentAwards = 5

// CompletionPercentage is the share of catalog definitions earned at least
// once, rounded to a whole percent. Repeat awards of daily achievements count once.
func (c *Calculator) CompletionPercentage(ctx context.Context) (int, error) {
	awarded, err := c.store.Achievements(ctx)
	if err != nil {
		return 0, err
	}
	return c.completion(awarded), nil
}

func (c *Calculator) completion(awarded []domain.AwardedAchievement) int {
	total := c.catalog.Len()
	if total == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(awarded))
	for _, a := range awarded {
		if _, ok := c.catalog.Get(a.ID); ok {
			distinct[a.ID] = struct{}{}
		}
	}
	return int(math.Round(float64(len(distinct)) / float64(total) * 100))
}

// ProgressToward returns how close the current state is to satisfying the
// definition id, in [0, 1]. Rules without a measurable quantity report 0.
func (c *Calculator) ProgressToward(ctx context.Context, id string) (float64, error) {
	def, ok := c.catalog.Get(id)
	if !ok {
		return 0, fmt.Errorf("achievement %s: %w", id, domain.ErrNotFound)
	}
	value, err := c.measure(ctx, def)
	if err != nil {
		return 0, err
	}
	if def.Requirement <= 0 {
		return 0, nil
	}
	return math.Min(value/def.Requirement, 1), nil
}

func (c *Calculator) measure(ctx context.Context, def domain.Achievement) (float64, error) {
	today := c.store.Today()
	switch def.Category {
	case domain.AchievementSteps:
		rec, err := c.store.Record(ctx, today)
		return float64(rec.Steps), err
	case domain.AchievementWorkouts:
		history, err := c.store.Workouts(ctx)
		if err != nil {
			return 0, err
		}
		switch def.ID {
		case "marathon_trainer":
			return float64(bestOf(history, func(w domain.WorkoutRecord) int { return w.DurationMinutes })), nil
		case "calorie_crusher":
			return float64(bestOf(history, func(w domain.WorkoutRecord) int { return w.CaloriesBurned })), nil
		default:
			return float64(len(history)), nil
		}
	case domain.AchievementStreaks:
		state, err := c.store.StreakState(ctx)
		return float64(state.Current), err
	case domain.AchievementHealth:
		switch def.ID {
		case "hydration_hero":
			water, err := c.store.Water(ctx, today)
			return water.Glasses, err
		case "sleep_champion":
			sleep, _, err := c.store.Sleep(ctx, today)
			return sleep.DurationHours, err
		}
	case domain.AchievementSocial:
		profile, err := c.store.Profile(ctx)
		if err != nil {
			return 0, err
		}
		if def.ID == "motivator" {
			return float64(profile.Social.Encouragements), nil
		}
		return float64(profile.Social.Shares), nil
	}
	return 0, nil
}

func bestOf(history []domain.WorkoutRecord, value func(domain.WorkoutRecord) int) int {
	best := 0
	for _, w := range history {
		best = max(best, value(w))
	}
	return best
}

// Summary is the achievement overview shown on the dashboard.
type Summary struct {
	TotalAchievements    int                                                      `json:"totalAchievements"`
	TotalPossible        int                                                      `json:"totalPossible"`
	CompletionPercentage int                                                      `json:"completionPercentage"`
	TotalPoints          int                                                      `json:"totalPoints"`
	Level                int                                                      `json:"level"`
	NextLevelPoints      int                                                      `json:"nextLevelPoints"`
	LevelProgress        float64                                                  `json:"levelProgress"`
	CurrentStreak        int                                                      `json:"currentStreak"`
	LongestStreak        int                                                      `json:"longestStreak"`
	ByCategory           map[domain.AchievementCategory][]domain.AwardedAchievement `json:"byCategory"`
	Recent               []domain.AwardedAchievement                              `json:"recentAchievements"`
}

// Summary aggregates awards, points and streaks.
func (c *Calculator) Summary(ctx context.Context) (Summary, error) {
	awarded, err := c.store.Achievements(ctx)
	if err != nil {
		return Summary{}, err
	}
	profile, err := c.store.Profile(ctx)
	if err != nil {
		return Summary{}, err
	}
	streak, err := c.store.StreakState(ctx)
	if err != nil {
		return Summary{}, err
	}

	byCategory := make(map[domain.AchievementCategory][]domain.AwardedAchievement)
	for _, a := range awarded {
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}
	recent := slices.Clone(awarded[max(len(awarded)-recentAwards, 0):])
	slices.Reverse(recent)

	return Summary{
		TotalAchievements:    len(awarded),
		TotalPossible:        c.catalog.Len(),
		CompletionPercentage: c.completion(awarded),
		TotalPoints:          profile.Points,
		Level:                leveling.LevelFor(profile.Points),
		NextLevelPoints:      leveling.PointsForNextLevel(profile.Points),
		LevelProgress:        leveling.Progress(profile.Points),
		CurrentStreak:        streak.Current,
		LongestStreak:        streak.Longest,
		ByCategory:           byCategory,
		Recent:               recent,
	}, nil
}

// AvailableAchievement is an unearned definition with its current progress.
type AvailableAchievement struct {
	domain.Achievement
	Progress float64 `json:"progress"`
}

// Available lists definitions never awarded, most progressed first. Ties keep
// catalog order.
func (c *Calculator) Available(ctx context.Context) ([]AvailableAchievement, error) {
	awarded, err := c.store.Achievements(ctx)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(awarded))
	for _, a := range awarded {
		earned[a.ID] = true
	}

	var out []AvailableAchievement
	for _, def := range c.catalog.All() {
		if earned[def.ID] {
			continue
		}
		p, err := c.ProgressToward(ctx, def.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, AvailableAchievement{Achievement: def, Progress: p})
	}
	slices.SortStableFunc(out, func(a, b AvailableAchievement) int {
		switch {
		case a.Progress > b.Progress:
			return -1
		case a.Progress < b.Progress:
			return 1
		}
		return 0
	})
	return out, nil
}
