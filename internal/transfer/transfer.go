// Package transfer exports the tracker's persisted state as a single JSON
// document and merges such documents back in.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/fittrack/internal/domain"
)

// Version is written into every export.
const Version = "1.0"

// Store is the slice of the activity store the transfer needs.
type Store interface {
	Now() time.Time
	Profile(ctx context.Context) (domain.UserProfile, error)
	SetProfile(ctx context.Context, profile domain.UserProfile) error
	Records(ctx context.Context) (map[string]domain.DailyActivityRecord, error)
	ReplaceRecords(ctx context.Context, records map[string]domain.DailyActivityRecord) error
	Workouts(ctx context.Context) ([]domain.WorkoutRecord, error)
	ReplaceWorkouts(ctx context.Context, history []domain.WorkoutRecord) error
	Goals(ctx context.Context) (domain.Goals, error)
	SetGoals(ctx context.Context, goals domain.Goals) error
	Achievements(ctx context.Context) ([]domain.AwardedAchievement, error)
	ReplaceAchievements(ctx context.Context, awarded []domain.AwardedAchievement) error
	Settings(ctx context.Context) (domain.Settings, error)
	SetSettings(ctx context.Context, settings domain.Settings) error
	WaterIntake(ctx context.Context) (map[string]domain.WaterIntake, error)
	ReplaceWaterIntake(ctx context.Context, water map[string]domain.WaterIntake) error
	SleepData(ctx context.Context) (map[string]domain.SleepRecord, error)
	ReplaceSleepData(ctx context.Context, sleep map[string]domain.SleepRecord) error
}

// Document is the export envelope.
type Document struct {
	UserProfile     domain.UserProfile                    `json:"userProfile"`
	DailyActivities map[string]domain.DailyActivityRecord `json:"dailyActivities"`
	WorkoutHistory  []domain.WorkoutRecord                `json:"workoutHistory"`
	Goals           domain.Goals                          `json:"goals"`
	Achievements    []domain.AwardedAchievement           `json:"achievements"`
	Settings        domain.Settings                       `json:"settings"`
	WaterIntake     map[string]domain.WaterIntake         `json:"waterIntake"`
	SleepData       map[string]domain.SleepRecord         `json:"sleepData"`
	ExportDate      time.Time                             `json:"exportDate"`
	Version         string                                `json:"version"`
}

// Export reads every section from store.
func Export(ctx context.Context, store Store) (Document, error) {
	var (
		doc Document
		err error
	)
	if doc.UserProfile, err = store.Profile(ctx); err != nil {
		return Document{}, fmt.Errorf("export profile: %w", err)
	}
	if doc.DailyActivities, err = store.Records(ctx); err != nil {
		return Document{}, fmt.Errorf("export daily activities: %w", err)
	}
	if doc.WorkoutHistory, err = store.Workouts(ctx); err != nil {
		return Document{}, fmt.Errorf("export workouts: %w", err)
	}
	if doc.Goals, err = store.Goals(ctx); err != nil {
		return Document{}, fmt.Errorf("export goals: %w", err)
	}
	if doc.Achievements, err = store.Achievements(ctx); err != nil {
		return Document{}, fmt.Errorf("export achievements: %w", err)
	}
	if doc.Settings, err = store.Settings(ctx); err != nil {
		return Document{}, fmt.Errorf("export settings: %w", err)
	}
	if doc.WaterIntake, err = store.WaterIntake(ctx); err != nil {
		return Document{}, fmt.Errorf("export water intake: %w", err)
	}
	if doc.SleepData, err = store.SleepData(ctx); err != nil {
		return Document{}, fmt.Errorf("export sleep data: %w", err)
	}
	doc.ExportDate = store.Now().UTC()
	doc.Version = Version
	return doc, nil
}

// envelope mirrors Document with every section optional so that absent
// sections leave stored data untouched.
type envelope struct {
	UserProfile     *domain.UserProfile                   `json:"userProfile"`
	DailyActivities map[string]domain.DailyActivityRecord `json:"dailyActivities"`
	WorkoutHistory  []domain.WorkoutRecord                `json:"workoutHistory"`
	Goals           *domain.Goals                         `json:"goals"`
	Achievements    []domain.AwardedAchievement           `json:"achievements"`
	Settings        *domain.Settings                      `json:"settings"`
	WaterIntake     map[string]domain.WaterIntake         `json:"waterIntake"`
	SleepData       map[string]domain.SleepRecord         `json:"sleepData"`
	ExportDate      *time.Time                            `json:"exportDate"`
	Version         string                                `json:"version"`
}

// Result names the sections an import wrote.
type Result struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	Imported   []string  `json:"imported"`
}

// Import decodes raw and writes each section it carries over the stored one.
// A document without version or exportDate is rejected with ErrInvalidFormat
// before anything is written. Sections are written in document order and a
// failing write stops the import.
func Import(ctx context.Context, store Store, raw []byte) (Result, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if env.Version == "" || env.ExportDate == nil || env.ExportDate.IsZero() {
		return Result{}, fmt.Errorf("%w: version and exportDate are required", domain.ErrInvalidFormat)
	}
	if err := validate(env); err != nil {
		return Result{}, err
	}

	res := Result{Version: env.Version, ExportDate: *env.ExportDate}
	steps := []struct {
		name    string
		present bool
		write   func() error
	}{
		{"userProfile", env.UserProfile != nil, func() error { return store.SetProfile(ctx, *env.UserProfile) }},
		{"dailyActivities", env.DailyActivities != nil, func() error { return store.ReplaceRecords(ctx, env.DailyActivities) }},
		{"workoutHistory", env.WorkoutHistory != nil, func() error { return store.ReplaceWorkouts(ctx, env.WorkoutHistory) }},
		{"goals", env.Goals != nil, func() error { return store.SetGoals(ctx, *env.Goals) }},
		{"achievements", env.Achievements != nil, func() error { return store.ReplaceAchievements(ctx, env.Achievements) }},
		{"settings", env.Settings != nil, func() error { return store.SetSettings(ctx, *env.Settings) }},
		{"waterIntake", env.WaterIntake != nil, func() error { return store.ReplaceWaterIntake(ctx, env.WaterIntake) }},
		{"sleepData", env.SleepData != nil, func() error { return store.ReplaceSleepData(ctx, env.SleepData) }},
	}
	for _, step := range steps {
		if !step.present {
			continue
		}
		if err := step.write(); err != nil {
			return res, fmt.Errorf("import %s: %w", step.name, err)
		}
		res.Imported = append(res.Imported, step.name)
	}
	return res, nil
}

// validate rejects date-keyed sections whose keys are not ISO dates.
func validate(env envelope) error {
	for date := range env.DailyActivities {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return fmt.Errorf("%w: daily activity date %q", domain.ErrInvalidFormat, date)
		}
	}
	for date := range env.WaterIntake {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return fmt.Errorf("%w: water intake date %q", domain.ErrInvalidFormat, date)
		}
	}
	for date := range env.SleepData {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return fmt.Errorf("%w: sleep date %q", domain.ErrInvalidFormat, date)
		}
	}
	return nil
}
