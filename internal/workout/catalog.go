package workout

import (
	"math"
	"slices"
	"strings"

	"example.com/fittrack/internal/domain"
)

// Exercise is a catalog entry.
type Exercise struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Category          domain.WorkoutCategory `json:"category"`
	MuscleGroups      []string               `json:"muscleGroups"`
	Equipment         string                 `json:"equipment"`
	Instructions      string                 `json:"instructions"`
	CaloriesPerMinute float64                `json:"caloriesPerMinute"`
	Difficulty        string                 `json:"difficulty"`
}

// PlannedExercise is one step of a workout plan. Timed steps set
// DurationSeconds, counted steps set Sets and Reps.
type PlannedExercise struct {
	ExerciseID      string `json:"exerciseId"`
	Sets            int    `json:"sets,omitempty"`
	Reps            int    `json:"reps,omitempty"`
	DurationSeconds int    `json:"duration,omitempty"`
	RestSeconds     int    `json:"rest,omitempty"`
}

// Template is a named workout plan.
type Template struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Category        domain.WorkoutCategory `json:"category"`
	DurationMinutes int                    `json:"duration"`
	Difficulty      string                 `json:"difficulty"`
	Exercises       []PlannedExercise      `json:"exercises"`
}

// Catalog holds exercises and templates. It is immutable after construction.
type Catalog struct {
	exercises []Exercise
	templates []Template
}

// NewCatalog constructs a Catalog from explicit lists.
func NewCatalog(exercises []Exercise, templates []Template) *Catalog {
	return &Catalog{exercises: slices.Clone(exercises), templates: slices.Clone(templates)}
}

// DefaultCatalog returns the built-in exercises and templates.
func DefaultCatalog() *Catalog {
	return NewCatalog(builtinExercises, builtinTemplates)
}

// Exercises returns every exercise in catalog order.
func (c *Catalog) Exercises() []Exercise {
	return slices.Clone(c.exercises)
}

// Exercise looks up an exercise by id.
func (c *Catalog) Exercise(id string) (Exercise, bool) {
	for _, ex := range c.exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return Exercise{}, false
}

// ByCategory returns the exercises of one category.
func (c *Catalog) ByCategory(category domain.WorkoutCategory) []Exercise {
	var out []Exercise
	for _, ex := range c.exercises {
		if ex.Category == category {
			out = append(out, ex)
		}
	}
	return out
}

// Search returns exercises whose name or muscle groups contain query,
// case-insensitively. An empty query matches everything. limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) []Exercise {
	normalized := strings.ToLower(strings.TrimSpace(query))
	results := make([]Exercise, 0)
	for _, ex := range c.exercises {
		if limit > 0 && len(results) >= limit {
			break
		}
		if normalized == "" || matches(ex, normalized) {
			results = append(results, ex)
		}
	}
	return results
}

func matches(ex Exercise, query string) bool {
	if strings.Contains(strings.ToLower(ex.Name), query) {
		return true
	}
	return slices.ContainsFunc(ex.MuscleGroups, func(g string) bool {
		return strings.Contains(strings.ToLower(g), query)
	})
}

// Templates returns every template in catalog order.
func (c *Catalog) Templates() []Template {
	return slices.Clone(c.templates)
}

// Template looks up a template by id.
func (c *Catalog) Template(id string) (Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// EstimateDuration returns the whole minutes needed for plan. Counted steps
// take two seconds per rep plus their rest, defaulting to a minute; every
// step's rest is then added.
func EstimateDuration(plan []PlannedExercise) int {
	total := 0
	for _, p := range plan {
		switch {
		case p.DurationSeconds > 0:
			total += p.DurationSeconds
		case p.Sets > 0 && p.Reps > 0:
			rest := p.RestSeconds
			if rest == 0 {
				rest = 60
			}
			total += p.Sets*p.Reps*2 + rest
		}
		total += p.RestSeconds
	}
	return int(math.Ceil(float64(total) / 60))
}

// CustomTemplate builds an unsaved template from an ad hoc plan.
func CustomTemplate(name string, plan []PlannedExercise) Template {
	return Template{
		Name:            name,
		Category:        domain.CategoryCustom,
		DurationMinutes: EstimateDuration(plan),
		Exercises:       slices.Clone(plan),
	}
}

var builtinExercises = []Exercise{
	{ID: "push_up", Name: "Push-ups", Category: domain.CategoryStrength, MuscleGroups: []string{"chest", "triceps", "shoulders"}, Equipment: "bodyweight", Instructions: "Start in plank position, lower body until chest nearly touches floor, push back up", CaloriesPerMinute: 8, Difficulty: "beginner"},
	{ID: "squat", Name: "Squats", Category: domain.CategoryStrength, MuscleGroups: []string{"quadriceps", "glutes", "hamstrings"}, Equipment: "bodyweight", Instructions: "Stand with feet shoulder-width apart, lower hips back and down, return to standing", CaloriesPerMinute: 6, Difficulty: "beginner"},
	{ID: "deadlift", Name: "Deadlifts", Category: domain.CategoryStrength, MuscleGroups: []string{"hamstrings", "glutes", "back"}, Equipment: "barbell", Instructions: "Stand with feet hip-width apart, hinge at hips, lower weight, return to standing", CaloriesPerMinute: 10, Difficulty: "intermediate"},
	{ID: "bench_press", Name: "Bench Press", Category: domain.CategoryStrength, MuscleGroups: []string{"chest", "triceps", "shoulders"}, Equipment: "barbell", Instructions: "Lie on bench, lower bar to chest, press up to full extension", CaloriesPerMinute: 9, Difficulty: "intermediate"},
	{ID: "plank", Name: "Plank", Category: domain.CategoryStrength, MuscleGroups: []string{"core", "shoulders"}, Equipment: "bodyweight", Instructions: "Hold body in straight line from head to heels, engage core", CaloriesPerMinute: 5, Difficulty: "beginner"},

	{ID: "running", Name: "Running", Category: domain.CategoryCardio, MuscleGroups: []string{"legs", "cardiovascular"}, Equipment: "none", Instructions: "Maintain steady pace, focus on breathing rhythm", CaloriesPerMinute: 12, Difficulty: "intermediate"},
	{ID: "cycling", Name: "Cycling", Category: domain.CategoryCardio, MuscleGroups: []string{"legs", "cardiovascular"}, Equipment: "bicycle", Instructions: "Maintain consistent pedaling rhythm, adjust resistance as needed", CaloriesPerMinute: 10, Difficulty: "beginner"},
	{ID: "jumping_jacks", Name: "Jumping Jacks", Category: domain.CategoryCardio, MuscleGroups: []string{"full body", "cardiovascular"}, Equipment: "bodyweight", Instructions: "Jump feet apart while raising arms overhead, return to starting position", CaloriesPerMinute: 9, Difficulty: "beginner"},
	{ID: "burpees", Name: "Burpees", Category: domain.CategoryCardio, MuscleGroups: []string{"full body", "cardiovascular"}, Equipment: "bodyweight", Instructions: "Squat down, jump back to plank, do push-up, jump feet forward, jump up", CaloriesPerMinute: 15, Difficulty: "advanced"},

	{ID: "sun_salutation", Name: "Sun Salutation", Category: domain.CategoryYoga, MuscleGroups: []string{"full body", "flexibility"}, Equipment: "yoga mat", Instructions: "Flow through mountain pose, forward fold, plank, cobra, downward dog", CaloriesPerMinute: 4, Difficulty: "beginner"},
	{ID: "warrior_pose", Name: "Warrior Pose", Category: domain.CategoryYoga, MuscleGroups: []string{"legs", "core", "balance"}, Equipment: "yoga mat", Instructions: "Step one foot forward, bend front knee, extend arms overhead", CaloriesPerMinute: 3, Difficulty: "beginner"},
	{ID: "downward_dog", Name: "Downward Dog", Category: domain.CategoryYoga, MuscleGroups: []string{"shoulders", "hamstrings", "calves"}, Equipment: "yoga mat", Instructions: "Form inverted V-shape, hands and feet on ground, hips lifted", CaloriesPerMinute: 3, Difficulty: "beginner"},

	{ID: "hiit_circuit", Name: "HIIT Circuit", Category: domain.CategoryHIIT, MuscleGroups: []string{"full body", "cardiovascular"}, Equipment: "bodyweight", Instructions: "High intensity intervals with short rest periods", CaloriesPerMinute: 18, Difficulty: "advanced"},
	{ID: "tabata", Name: "Tabata", Category: domain.CategoryHIIT, MuscleGroups: []string{"full body", "cardiovascular"}, Equipment: "bodyweight", Instructions: "20 seconds all-out effort, 10 seconds rest, repeat 8 times", CaloriesPerMinute: 20, Difficulty: "advanced"},
}

var builtinTemplates = []Template{
	{
		ID: "full_body_hiit", Name: "Full Body HIIT", Category: domain.CategoryHIIT, DurationMinutes: 45, Difficulty: "intermediate",
		Exercises: []PlannedExercise{
			{ExerciseID: "burpees", DurationSeconds: 30, RestSeconds: 15},
			{ExerciseID: "jumping_jacks", DurationSeconds: 30, RestSeconds: 15},
			{ExerciseID: "push_up", Reps: 15, RestSeconds: 30},
			{ExerciseID: "squat", Reps: 20, RestSeconds: 30},
			{ExerciseID: "plank", DurationSeconds: 45, RestSeconds: 60},
		},
	},
	{
		ID: "upper_body_strength", Name: "Upper Body Strength", Category: domain.CategoryStrength, DurationMinutes: 60, Difficulty: "intermediate",
		Exercises: []PlannedExercise{
			{ExerciseID: "bench_press", Sets: 3, Reps: 10, RestSeconds: 90},
			{ExerciseID: "push_up", Sets: 3, Reps: 15, RestSeconds: 60},
			{ExerciseID: "plank", Sets: 3, DurationSeconds: 60, RestSeconds: 60},
		},
	},
	{
		ID: "morning_yoga", Name: "Morning Yoga Flow", Category: domain.CategoryYoga, DurationMinutes: 20, Difficulty: "beginner",
		Exercises: []PlannedExercise{
			{ExerciseID: "sun_salutation", Sets: 5, RestSeconds: 15},
			{ExerciseID: "warrior_pose", DurationSeconds: 60, RestSeconds: 15},
			{ExerciseID: "downward_dog", DurationSeconds: 45, RestSeconds: 15},
		},
	},
	{
		ID: "cardio_blast", Name: "Cardio Blast", Category: domain.CategoryCardio, DurationMinutes: 30, Difficulty: "beginner",
		Exercises: []PlannedExercise{
			{ExerciseID: "jumping_jacks", DurationSeconds: 60, RestSeconds: 30},
			{ExerciseID: "burpees", Reps: 10, RestSeconds: 45},
			{ExerciseID: "running", DurationSeconds: 300, RestSeconds: 60},
		},
	},
}
