package activity

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/persistence"
)

// Workouts returns the history, most recent first.
func (s *Store) Workouts(ctx context.Context) ([]domain.WorkoutRecord, error) {
	history := make([]domain.WorkoutRecord, 0)
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyWorkoutHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Workout returns the workout with id.
func (s *Store) Workout(ctx context.Context, id string) (domain.WorkoutRecord, error) {
	history, err := s.Workouts(ctx)
	if err != nil {
		return domain.WorkoutRecord{}, err
	}
	for _, w := range history {
		if w.ID == id {
			return w, nil
		}
	}
	return domain.WorkoutRecord{}, fmt.Errorf("workout %s: %w", id, domain.ErrNotFound)
}

// AppendWorkout prepends w to the history, evicting the oldest entries beyond
// the cap, and credits its duration and calories to the day it started.
func (s *Store) AppendWorkout(ctx context.Context, w domain.WorkoutRecord) (domain.WorkoutRecord, error) {
	if w.DurationMinutes < 0 || w.CaloriesBurned < 0 {
		return domain.WorkoutRecord{}, fmt.Errorf("%w: workout duration and calories must be non-negative", domain.ErrInvalidValue)
	}
	if strings.TrimSpace(w.ID) == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.WorkoutRecord{}, err
		}
		w.ID = id.String()
	}
	if w.Category == "" {
		w.Category = domain.CategoryCustom
	}
	if !w.Category.Valid() {
		return domain.WorkoutRecord{}, fmt.Errorf("%w: workout category %q", domain.ErrInvalidValue, w.Category)
	}
	if w.StartTime.IsZero() {
		w.StartTime = s.now()
	}
	if w.EndTime.IsZero() {
		w.EndTime = w.StartTime
	}
	if w.CompletedExercises == nil {
		w.CompletedExercises = []domain.CompletedExercise{}
	}
	date := domain.DateOf(w.StartTime.In(s.Location()))

	s.mu.Lock()
	history, err := s.Workouts(ctx)
	if err == nil {
		history = append([]domain.WorkoutRecord{w}, history...)
		if len(history) > domain.MaxWorkoutHistory {
			history = history[:domain.MaxWorkoutHistory]
		}
		err = persistence.SetJSON(ctx, s.kv, persistence.KeyWorkoutHistory, history)
	}
	var rec domain.DailyActivityRecord
	if err == nil {
		rec, err = s.mutateRecordLocked(ctx, date, func(r *domain.DailyActivityRecord) error {
			r.ActiveMinutes += w.DurationMinutes
			r.Calories += float64(w.CaloriesBurned)
			r.WorkoutIDs = append(r.WorkoutIDs, w.ID)
			return nil
		})
	}
	s.mu.Unlock()
	if err != nil {
		return domain.WorkoutRecord{}, err
	}

	evts := append(fieldEvents(rec, domain.FieldActiveMinutes), fieldEvents(rec, domain.FieldCalories)...)
	evts = append(evts, events.WorkoutCompleted{Workout: w})
	s.publish(ctx, evts...)
	return w, nil
}

// UpdateWorkout applies fn to the workout with id and persists the result.
// ID and start time are preserved.
func (s *Store) UpdateWorkout(ctx context.Context, id string, fn func(*domain.WorkoutRecord)) (domain.WorkoutRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.Workouts(ctx)
	if err != nil {
		return domain.WorkoutRecord{}, err
	}
	idx := slices.IndexFunc(history, func(w domain.WorkoutRecord) bool { return w.ID == id })
	if idx < 0 {
		return domain.WorkoutRecord{}, fmt.Errorf("workout %s: %w", id, domain.ErrNotFound)
	}
	updated := history[idx]
	fn(&updated)
	updated.ID = history[idx].ID
	updated.StartTime = history[idx].StartTime
	if updated.DurationMinutes < 0 || updated.CaloriesBurned < 0 || !updated.Category.Valid() {
		return domain.WorkoutRecord{}, fmt.Errorf("%w: workout update", domain.ErrInvalidValue)
	}
	history[idx] = updated
	if err := persistence.SetJSON(ctx, s.kv, persistence.KeyWorkoutHistory, history); err != nil {
		return domain.WorkoutRecord{}, err
	}
	return updated, nil
}

// DeleteWorkout removes the workout with id from history and from its day's workout list.
func (s *Store) DeleteWorkout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.Workouts(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(history, func(w domain.WorkoutRecord) bool { return w.ID == id })
	if idx < 0 {
		return fmt.Errorf("workout %s: %w", id, domain.ErrNotFound)
	}
	removed := history[idx]
	history = slices.Delete(history, idx, idx+1)
	if err := persistence.SetJSON(ctx, s.kv, persistence.KeyWorkoutHistory, history); err != nil {
		return err
	}

	date := domain.DateOf(removed.StartTime.In(s.Location()))
	records, err := s.Records(ctx)
	if err != nil {
		return err
	}
	rec, ok := records[date]
	if !ok {
		return nil
	}
	rec.WorkoutIDs = slices.DeleteFunc(rec.WorkoutIDs, func(wid string) bool { return wid == id })
	records[date] = rec
	return persistence.SetJSON(ctx, s.kv, persistence.KeyDailyActivities, records)
}

// ReplaceWorkouts overwrites the history, keeping at most the first MaxWorkoutHistory entries.
func (s *Store) ReplaceWorkouts(ctx context.Context, history []domain.WorkoutRecord) error {
	if len(history) > domain.MaxWorkoutHistory {
		history = history[:domain.MaxWorkoutHistory]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyWorkoutHistory, history)
}
