// Package events defines the typed events exchanged between tracker components
// and the in-process bus that delivers them.
package events

import (
	"time"

	"example.com/fittrack/internal/domain"
)

// Type is the stable wire name of an event.
type Type string

const (
	TypeActivityRecorded   Type = "activity.recorded"
	TypeStepCountChanged   Type = "steps.changed"
	TypeWorkoutCompleted   Type = "workout.completed"
	TypeHealthLogged       Type = "health.logged"
	TypeGoalCheck          Type = "goal.check"
	TypeStreakCheck        Type = "streak.check"
	TypeSocialLogged       Type = "social.logged"
	TypeAchievementAwarded Type = "achievement.awarded"
	TypeLevelUp            Type = "level.up"
	TypeStreakUpdated      Type = "streak.updated"
	TypeReminderDue        Type = "reminder.due"
)

// Event is implemented by every payload carried on the bus.
type Event interface {
	EventType() Type
}

// ActivityRecorded is published after any successful write to a daily record.
type ActivityRecorded struct {
	Date       string       `json:"date"`
	Field      domain.Field `json:"field"`
	Value      float64      `json:"value"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// StepCountChanged carries the new step total of a date.
type StepCountChanged struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// WorkoutCompleted carries a workout appended to history.
type WorkoutCompleted struct {
	Workout domain.WorkoutRecord `json:"workout"`
}

// HealthMetric names the kind of health value logged.
type HealthMetric string

const (
	MetricWater HealthMetric = "water"
	MetricSleep HealthMetric = "sleep"
)

// HealthLogged carries the new daily total of a health metric.
type HealthLogged struct {
	Date   string       `json:"date"`
	Metric HealthMetric `json:"metric"`
	Value  float64      `json:"value"`
}

// GoalCheck asks for goal rules to be evaluated against a date.
type GoalCheck struct {
	Date string `json:"date"`
}

// StreakCheck asks for the streak to be evaluated for a date. An empty date
// selects today.
type StreakCheck struct {
	Date string `json:"date,omitempty"`
}

// SocialLogged is published after a share or an encouragement.
type SocialLogged struct {
	Shares         int `json:"shares"`
	Encouragements int `json:"encouragements"`
}

// AchievementAwarded is emitted for every new award.
type AchievementAwarded struct {
	Achievement domain.AwardedAchievement `json:"achievement"`
	TotalPoints int                       `json:"total_points"`
}

// LevelUp is emitted when an award crosses a level boundary.
type LevelUp struct {
	Level       int       `json:"level"`
	TotalPoints int       `json:"total_points"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// StreakUpdated is emitted when the streak tracker mutates its state.
type StreakUpdated struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	Date    string `json:"date"`
}

// ReminderDue is emitted by scheduled reminders.
type ReminderDue struct {
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	DueAt   time.Time `json:"due_at"`
}

func (ActivityRecorded) EventType() Type   { return TypeActivityRecorded }
func (StepCountChanged) EventType() Type   { return TypeStepCountChanged }
func (WorkoutCompleted) EventType() Type   { return TypeWorkoutCompleted }
func (HealthLogged) EventType() Type       { return TypeHealthLogged }
func (GoalCheck) EventType() Type          { return TypeGoalCheck }
func (StreakCheck) EventType() Type        { return TypeStreakCheck }
func (SocialLogged) EventType() Type       { return TypeSocialLogged }
func (AchievementAwarded) EventType() Type { return TypeAchievementAwarded }
func (LevelUp) EventType() Type            { return TypeLevelUp }
func (StreakUpdated) EventType() Type      { return TypeStreakUpdated }
func (ReminderDue) EventType() Type        { return TypeReminderDue }
