package achievement

import "example.com/fittrack/internal/domain"

// Catalog is the ordered, immutable set of achievement definitions.
type Catalog struct {
	defs  []domain.Achievement
	index map[string]int
}

// NewCatalog indexes defs by id, keeping their order.
func NewCatalog(defs []domain.Achievement) *Catalog {
	c := &Catalog{defs: append([]domain.Achievement(nil), defs...), index: make(map[string]int, len(defs))}
	for i, d := range c.defs {
		c.index[d.ID] = i
	}
	return c
}

// DefaultCatalog returns the built-in definitions.
func DefaultCatalog() *Catalog {
	return NewCatalog(builtin)
}

// All returns a copy of every definition in catalog order.
func (c *Catalog) All() []domain.Achievement {
	return append([]domain.Achievement(nil), c.defs...)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Get returns the definition with id.
func (c *Catalog) Get(id string) (domain.Achievement, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Achievement{}, false
	}
	return c.defs[i], true
}

// ByCategory returns the definitions of category in catalog order.
func (c *Catalog) ByCategory(category domain.AchievementCategory) []domain.Achievement {
	out := make([]domain.Achievement, 0)
	for _, d := range c.defs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

var builtin = []domain.Achievement{
	{ID: "first_steps", Title: "First Steps", Description: "Take your first 100 steps", Icon: "footprints", Category: domain.AchievementSteps, Requirement: 100, Points: 10},
	{ID: "thousand_steps", Title: "1K Steps", Description: "Walk 1,000 steps in a day", Icon: "footprints", Category: domain.AchievementSteps, Requirement: 1000, Points: 20},
	{ID: "five_k_steps", Title: "5K Walker", Description: "Walk 5,000 steps in a day", Icon: "footprints", Category: domain.AchievementSteps, Requirement: 5000, Points: 50},
	{ID: "ten_k_steps", Title: "10K Champion", Description: "Walk 10,000 steps in a day", Icon: "target", Category: domain.AchievementSteps, Requirement: 10000, Points: 100},
	{ID: "twenty_k_steps", Title: "Step Master", Description: "Walk 20,000 steps in a day", Icon: "award", Category: domain.AchievementSteps, Requirement: 20000, Points: 200},

	{ID: "first_workout", Title: "Getting Started", Description: "Complete your first workout", Icon: "play", Category: domain.AchievementWorkouts, Requirement: 1, Points: 25},
	{ID: "workout_warrior", Title: "Workout Warrior", Description: "Complete 10 workouts", Icon: "dumbbell", Category: domain.AchievementWorkouts, Requirement: 10, Points: 100},
	{ID: "fitness_fanatic", Title: "Fitness Fanatic", Description: "Complete 50 workouts", Icon: "trophy", Category: domain.AchievementWorkouts, Requirement: 50, Points: 500},
	{ID: "marathon_trainer", Title: "Marathon Trainer", Description: "Work out for 60 minutes in a single session", Icon: "clock", Category: domain.AchievementWorkouts, Requirement: 60, Points: 150},
	{ID: "calorie_crusher", Title: "Calorie Crusher", Description: "Burn 500+ calories in one workout", Icon: "flame", Category: domain.AchievementWorkouts, Requirement: 500, Points: 100},

	{ID: "three_day_streak", Title: "3-Day Streak", Description: "Stay active for 3 consecutive days", Icon: "calendar", Category: domain.AchievementStreaks, Requirement: 3, Points: 50},
	{ID: "week_warrior", Title: "Week Warrior", Description: "Stay active for 7 consecutive days", Icon: "calendar-check", Category: domain.AchievementStreaks, Requirement: 7, Points: 150},
	{ID: "month_master", Title: "Month Master", Description: "Stay active for 30 consecutive days", Icon: "star", Category: domain.AchievementStreaks, Requirement: 30, Points: 500},

	{ID: "hydration_hero", Title: "Hydration Hero", Description: "Drink 8 glasses of water in a day", Icon: "droplets", Category: domain.AchievementHealth, Requirement: 8, Points: 30},
	{ID: "sleep_champion", Title: "Sleep Champion", Description: "Get 8+ hours of sleep", Icon: "moon", Category: domain.AchievementHealth, Requirement: 8, Points: 40},
	{ID: "health_tracker", Title: "Health Tracker", Description: "Log health data for 7 consecutive days", Icon: "heart", Category: domain.AchievementHealth, Requirement: 7, Points: 100},

	{ID: "goal_getter", Title: "Goal Getter", Description: "Achieve all daily goals in one day", Icon: "target", Category: domain.AchievementGoals, Requirement: 1, Points: 100},
	{ID: "consistency_king", Title: "Consistency King", Description: "Meet daily goals for 7 consecutive days", Icon: "crown", Category: domain.AchievementGoals, Requirement: 7, Points: 300},
	{ID: "overachiever", Title: "Overachiever", Description: "Exceed all daily goals by 50%", Icon: "trending-up", Category: domain.AchievementGoals, Requirement: 1.5, Points: 200},

	{ID: "sharing_is_caring", Title: "Sharing is Caring", Description: "Share your first achievement", Icon: "share", Category: domain.AchievementSocial, Requirement: 1, Points: 25},
	{ID: "motivator", Title: "Motivator", Description: "Encourage 10 friends", Icon: "users", Category: domain.AchievementSocial, Requirement: 10, Points: 100},

	{ID: "early_bird", Title: "Early Bird", Description: "Complete a workout before 7 AM", Icon: "sunrise", Category: domain.AchievementSpecial, Requirement: 1, Points: 75},
	{ID: "night_owl", Title: "Night Owl", Description: "Complete a workout after 9 PM", Icon: "moon", Category: domain.AchievementSpecial, Requirement: 1, Points: 75},
	{ID: "weekend_warrior", Title: "Weekend Warrior", Description: "Work out on both Saturday and Sunday", Icon: "calendar", Category: domain.AchievementSpecial, Requirement: 2, Points: 100},
	{ID: "perfectionist", Title: "Perfectionist", Description: "Complete a workout with 100% accuracy", Icon: "check-circle", Category: domain.AchievementSpecial, Requirement: 1, Points: 150},
}
