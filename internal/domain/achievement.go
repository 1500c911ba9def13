package domain

import "time"

// AchievementCategory classifies catalog entries and drives award de-duplication.
type AchievementCategory string

const (
	AchievementSteps    AchievementCategory = "steps"
	AchievementWorkouts AchievementCategory = "workouts"
	AchievementStreaks  AchievementCategory = "streaks"
	AchievementHealth   AchievementCategory = "health"
	AchievementGoals    AchievementCategory = "goals"
	AchievementSocial   AchievementCategory = "social"
	AchievementSpecial  AchievementCategory = "special"
)

// AchievementCategories lists the categories in catalog order.
var AchievementCategories = []AchievementCategory{
	AchievementSteps, AchievementWorkouts, AchievementStreaks, AchievementHealth,
	AchievementGoals, AchievementSocial, AchievementSpecial,
}

// Daily reports whether achievements of this category may be earned once per
// calendar day rather than once ever.
func (c AchievementCategory) Daily() bool {
	switch c {
	case AchievementSteps, AchievementHealth, AchievementGoals:
		return true
	}
	return false
}

// Achievement is an immutable catalog definition.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Requirement float64             `json:"requirement"`
	Points      int                 `json:"points"`
}

// AwardedAchievement is one award of a catalog definition. ID repeats across
// awards of daily categories.
type AwardedAchievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Points      int                 `json:"points"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Award materialises a definition at the given instant.
func (a Achievement) Award(at time.Time) AwardedAchievement {
	return AwardedAchievement{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Category:    a.Category,
		Points:      a.Points,
		Timestamp:   at,
	}
}

// Date returns the calendar date of the award in loc.
func (a AwardedAchievement) Date(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(a.Timestamp.In(loc))
}

// StreakState is the persisted consecutive-active-day counter.
type StreakState struct {
	Current        int    `json:"current"`
	Longest        int    `json:"longest"`
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}
