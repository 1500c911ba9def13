package domain

import "time"

// WorkoutCategory groups exercises and workouts.
type WorkoutCategory string

const (
	CategoryStrength WorkoutCategory = "strength"
	CategoryCardio   WorkoutCategory = "cardio"
	CategoryYoga     WorkoutCategory = "yoga"
	CategoryHIIT     WorkoutCategory = "hiit"
	CategoryCustom   WorkoutCategory = "custom"
)

// Valid reports whether c is a known category.
func (c WorkoutCategory) Valid() bool {
	switch c {
	case CategoryStrength, CategoryCardio, CategoryYoga, CategoryHIIT, CategoryCustom:
		return true
	}
	return false
}

// MaxWorkoutHistory caps the persisted workout history.
const MaxWorkoutHistory = 100

// CompletedExercise records one exercise finished during a session.
type CompletedExercise struct {
	ExerciseID      string    `json:"exerciseId"`
	Name            string    `json:"name"`
	Sets            int       `json:"sets,omitempty"`
	Reps            int       `json:"reps,omitempty"`
	DurationSeconds int       `json:"duration,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

// WorkoutRecord is a finished workout.
type WorkoutRecord struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Category           WorkoutCategory     `json:"category"`
	StartTime          time.Time           `json:"startTime"`
	EndTime            time.Time           `json:"endTime"`
	DurationMinutes    int                 `json:"duration"`
	CaloriesBurned     int                 `json:"caloriesBurned"`
	PlannedExercises   int                 `json:"plannedExercises"`
	CompletedExercises []CompletedExercise `json:"completedExercises"`
	Notes              string              `json:"notes"`
}

// Cursor marks a position in the newest-first workout history.
type Cursor struct {
	StartTime time.Time
	ID        string
}
