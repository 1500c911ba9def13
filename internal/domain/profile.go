package domain

import "time"

// UserProfile carries biometrics and the cumulative point total.
type UserProfile struct {
	Name          string      `json:"name"`
	Age           int         `json:"age"`
	Gender        string      `json:"gender"`
	HeightCm      float64     `json:"height"`
	WeightKg      float64     `json:"weight"`
	ActivityLevel string      `json:"activityLevel"`
	JoinDate      time.Time   `json:"joinDate"`
	Points        int         `json:"points"`
	Social        SocialStats `json:"social"`
}

// SocialStats counts sharing actions.
type SocialStats struct {
	Shares         int `json:"shares"`
	Encouragements int `json:"encouragements"`
}

// DailyGoals are the per-day targets.
type DailyGoals struct {
	Steps         int     `json:"steps"`
	Calories      float64 `json:"calories"`
	DistanceKm    float64 `json:"distance"`
	ActiveMinutes int     `json:"activeMinutes"`
	Water         float64 `json:"water"`
	Sleep         float64 `json:"sleep"`
}

// WeeklyGoals are the per-week targets.
type WeeklyGoals struct {
	Workouts     int     `json:"workouts"`
	WeightLossKg float64 `json:"weightLoss"`
}

// Goals bundles daily and weekly targets.
type Goals struct {
	Daily  DailyGoals  `json:"daily"`
	Weekly WeeklyGoals `json:"weekly"`
}

// NotificationSettings toggles reminders and alerts.
type NotificationSettings struct {
	WorkoutReminders  bool `json:"workoutReminders"`
	WaterReminders    bool `json:"waterReminders"`
	SleepReminders    bool `json:"sleepReminders"`
	AchievementAlerts bool `json:"achievementAlerts"`
}

// UnitSettings selects display units.
type UnitSettings struct {
	Distance    string `json:"distance"`
	Weight      string `json:"weight"`
	Temperature string `json:"temperature"`
}

// PrivacySettings controls sharing.
type PrivacySettings struct {
	ShareData     bool `json:"shareData"`
	PublicProfile bool `json:"publicProfile"`
}

// Settings are the user preferences.
type Settings struct {
	Theme           string               `json:"theme"`
	Notifications   NotificationSettings `json:"notifications"`
	Units           UnitSettings         `json:"units"`
	Privacy         PrivacySettings      `json:"privacy"`
	StepCalibration float64              `json:"stepCalibration"`
}

// DefaultProfile returns the profile seeded on first launch.
func DefaultProfile(now time.Time) UserProfile {
	return UserProfile{
		Age:           30,
		Gender:        "male",
		HeightCm:      175,
		WeightKg:      70,
		ActivityLevel: "moderate",
		JoinDate:      now,
	}
}

// DefaultGoals returns the seeded daily and weekly targets.
func DefaultGoals() Goals {
	return Goals{
		Daily: DailyGoals{
			Steps:         10000,
			Calories:      2500,
			DistanceKm:    10,
			ActiveMinutes: 60,
			Water:         8,
			Sleep:         8,
		},
		Weekly: WeeklyGoals{Workouts: 5, WeightLossKg: 0.5},
	}
}

// DefaultSettings returns the seeded preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme: "dark",
		Notifications: NotificationSettings{
			WorkoutReminders:  true,
			WaterReminders:    true,
			SleepReminders:    true,
			AchievementAlerts: true,
		},
		Units:           UnitSettings{Distance: "km", Weight: "kg", Temperature: "celsius"},
		Privacy:         PrivacySettings{},
		StepCalibration: 1,
	}
}
